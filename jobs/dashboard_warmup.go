package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian/internal/reports"
)

// DashboardWarmupJob pre-populates the report cache so the first dashboard
// request after an invalidation does not pay the query cost.
type DashboardWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Reports: reportsSvc,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes warmup tasks. The independent payloads load concurrently.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	period := payload.Period
	if period == "" {
		period = j.clock().Format("2006-01")
	}
	asOf := j.clock().Truncate(24 * time.Hour)

	start := j.clock()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := j.Reports.KPI(gctx, period)
		return err
	})
	g.Go(func() error {
		_, err := j.Reports.SalesSummary(gctx, period)
		return err
	})
	g.Go(func() error {
		_, err := j.Reports.ARAging(gctx, asOf)
		return err
	})
	g.Go(func() error {
		_, err := j.Reports.APAging(gctx, asOf)
		return err
	})
	g.Go(func() error {
		_, err := j.Reports.OTIF(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if j.Logger != nil {
		j.Logger.Info("dashboard warmup done",
			slog.String("period", period),
			slog.Duration("took", j.clock().Sub(start)))
	}
	return nil
}
