package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian/internal/platform/db"
	"github.com/meridian-erp/meridian/internal/reports"
)

// AgingSnapshotJob persists the nightly AR/AP aging rows so trends can be
// charted without replaying history.
type AgingSnapshotJob struct {
	Reports *reports.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewAgingSnapshotJob wires dependencies for the snapshot handler.
func NewAgingSnapshotJob(reportsSvc *reports.Service, pool *pgxpool.Pool, logger *slog.Logger) *AgingSnapshotJob {
	return &AgingSnapshotJob{
		Reports: reportsSvc,
		Pool:    pool,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes snapshot tasks.
func (j *AgingSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil || j.Pool == nil {
		return errors.New("aging snapshot: handler not configured")
	}
	var payload AgingSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	asOf := j.clock().Truncate(24 * time.Hour)
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}

	arRows, err := j.Reports.ARAging(ctx, asOf)
	if err != nil {
		return fmt.Errorf("aging snapshot: ar: %w", err)
	}
	apRows, err := j.Reports.APAging(ctx, asOf)
	if err != nil {
		return fmt.Errorf("aging snapshot: ap: %w", err)
	}

	err = db.WithTx(ctx, j.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM aging_snapshots WHERE as_of = $1`, asOf); err != nil {
			return err
		}
		if err := insertSnapshotRows(ctx, tx, "AR", asOf, arRows); err != nil {
			return err
		}
		return insertSnapshotRows(ctx, tx, "AP", asOf, apRows)
	})
	if err != nil {
		return fmt.Errorf("aging snapshot: persist: %w", err)
	}

	if j.Logger != nil {
		j.Logger.Info("aging snapshot stored",
			slog.Time("as_of", asOf),
			slog.Int("ar_rows", len(arRows)),
			slog.Int("ap_rows", len(apRows)))
	}
	return nil
}

func insertSnapshotRows(ctx context.Context, tx pgx.Tx, side string, asOf time.Time, rows []reports.AgingRow) error {
	for _, row := range rows {
		_, err := tx.Exec(ctx, `INSERT INTO aging_snapshots
(as_of, side, party_code, current_amt, days_30, days_60, days_90, days_120, over_120, outstanding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			asOf, side, row.PartyCode,
			row.Current, row.Days30, row.Days60, row.Days90, row.Days120, row.Over120,
			row.Outstanding)
		if err != nil {
			return err
		}
	}
	return nil
}
