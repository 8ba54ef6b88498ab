package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/shared"
)

// ErrNotFound indicates a missing cost center or request.
var ErrNotFound = errors.New("budget: not found")

// Repository exposes the budget ledger persistence operations.
type Repository interface {
	GroupFigures(ctx context.Context, costCenterCode string, period time.Time) (*PlanFigures, error)
	CreateRequest(ctx context.Context, req ExpenseRequest) (int64, error)
	GetRequest(ctx context.Context, id int64) (*ExpenseRequest, error)
	ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]ExpenseRequest, int, error)
	TransitionRequest(ctx context.Context, id int64, from, to RequestStatus, actor string, warning string) error
}

// PGRepository implements Repository over the ERP replica schema.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GroupFigures resolves the parent group of a cost center and aggregates its
// monthly and YTD plan vs. actual for the period. Plans and actuals are
// summed in separate queries; joining both to the group in one FROM clause
// would cross-multiply the rows before aggregation.
func (r *PGRepository) GroupFigures(ctx context.Context, costCenterCode string, period time.Time) (*PlanFigures, error) {
	var f PlanFigures
	err := r.pool.QueryRow(ctx, `SELECT g.code, g.control_level
FROM budget_cost_centers c
JOIN budget_cost_centers g ON g.code = COALESCE(NULLIF(c.parent_code, ''), c.code)
WHERE c.code = $1`, costCenterCode).Scan(&f.GroupCode, &f.ControlLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("budget: resolve group: %w", err)
	}

	plans, err := r.monthAmounts(ctx, `SELECT plan_month, SUM(plan_amount)
FROM budget_plans
WHERE group_code = $1 AND date_part('year', plan_month) = date_part('year', $2::date)
GROUP BY plan_month`, f.GroupCode, period)
	if err != nil {
		return nil, fmt.Errorf("budget: load plan figures: %w", err)
	}
	actuals, err := r.monthAmounts(ctx, `SELECT actual_month, SUM(actual_amount)
FROM budget_actuals
WHERE group_code = $1 AND date_part('year', actual_month) = date_part('year', $2::date)
GROUP BY actual_month`, f.GroupCode, period)
	if err != nil {
		return nil, fmt.Errorf("budget: load actual figures: %w", err)
	}

	foldFigures(&f, period, plans, actuals)
	return &f, nil
}

// monthAmount is one month's aggregated plan or actual total.
type monthAmount struct {
	Month  time.Time
	Amount decimal.Decimal
}

func (r *PGRepository) monthAmounts(ctx context.Context, query, groupCode string, period time.Time) ([]monthAmount, error) {
	rows, err := r.pool.Query(ctx, query, groupCode, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []monthAmount
	for rows.Next() {
		var ma monthAmount
		if err := rows.Scan(&ma.Month, &ma.Amount); err != nil {
			return nil, err
		}
		out = append(out, ma)
	}
	return out, rows.Err()
}

// foldFigures accumulates same-year monthly totals into the period's month
// and YTD figures.
func foldFigures(f *PlanFigures, period time.Time, plans, actuals []monthAmount) {
	f.MonthPlan, f.YTDPlan = foldMonths(period, plans)
	f.MonthActual, f.YTDActual = foldMonths(period, actuals)
}

func foldMonths(period time.Time, amounts []monthAmount) (month, ytd decimal.Decimal) {
	for _, ma := range amounts {
		if ma.Month.Year() != period.Year() || ma.Month.Month() > period.Month() {
			continue
		}
		ytd = ytd.Add(ma.Amount)
		if ma.Month.Month() == period.Month() {
			month = month.Add(ma.Amount)
		}
	}
	return month, ytd
}

// CreateRequest inserts a PENDING expense request.
func (r *PGRepository) CreateRequest(ctx context.Context, req ExpenseRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO expense_requests
(cost_center_code, group_code, amount, purpose, status, warning, requested_by, requested_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NOW())
RETURNING id`,
		req.CostCenterCode, req.GroupCode, req.Amount, req.Purpose, string(StatusPending), req.Warning, req.RequestedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("budget: create request: %w", err)
	}
	return id, nil
}

// GetRequest fetches a request by ID.
func (r *PGRepository) GetRequest(ctx context.Context, id int64) (*ExpenseRequest, error) {
	var req ExpenseRequest
	var status string
	var warning, decidedBy, paidBy *string
	err := r.pool.QueryRow(ctx, `SELECT id, cost_center_code, group_code, amount, purpose, status,
	warning, requested_by, requested_at, decided_by, decided_at, paid_by, paid_at
FROM expense_requests WHERE id = $1`, id).Scan(
		&req.ID, &req.CostCenterCode, &req.GroupCode, &req.Amount, &req.Purpose, &status,
		&warning, &req.RequestedBy, &req.RequestedAt, &decidedBy, &req.DecidedAt, &paidBy, &req.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	req.Status = RequestStatus(status)
	if warning != nil {
		req.Warning = *warning
	}
	if decidedBy != nil {
		req.DecidedBy = *decidedBy
	}
	if paidBy != nil {
		req.PaidBy = *paidBy
	}
	return &req, nil
}

// ListRequests returns requests filtered by status, newest first.
func (r *PGRepository) ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]ExpenseRequest, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expense_requests WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, cost_center_code, group_code, amount, purpose, status,
	COALESCE(warning, ''), requested_by, requested_at, COALESCE(decided_by, ''), decided_at, COALESCE(paid_by, ''), paid_at
FROM expense_requests
WHERE ($1 = '' OR status = $1)
ORDER BY requested_at DESC, id DESC
LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ExpenseRequest
	for rows.Next() {
		var req ExpenseRequest
		var st string
		if err := rows.Scan(&req.ID, &req.CostCenterCode, &req.GroupCode, &req.Amount, &req.Purpose, &st,
			&req.Warning, &req.RequestedBy, &req.RequestedAt, &req.DecidedBy, &req.DecidedAt, &req.PaidBy, &req.PaidAt); err != nil {
			return nil, 0, err
		}
		req.Status = RequestStatus(st)
		out = append(out, req)
	}
	return out, total, rows.Err()
}

// TransitionRequest moves a request between lifecycle states. The UPDATE is
// guarded by the expected prior status; zero affected rows means someone else
// already moved the request.
func (r *PGRepository) TransitionRequest(ctx context.Context, id int64, from, to RequestStatus, actor string, warning string) error {
	var tag string
	var args []any
	switch to {
	case StatusApproved, StatusRejected:
		tag = `UPDATE expense_requests
SET status = $1, decided_by = $2, decided_at = NOW(), warning = COALESCE(NULLIF($3, ''), warning)
WHERE id = $4 AND status = $5`
		args = []any{string(to), actor, warning, id, string(from)}
	case StatusPaid:
		tag = `UPDATE expense_requests
SET status = $1, paid_by = $2, paid_at = NOW()
WHERE id = $3 AND status = $4`
		args = []any{string(to), actor, id, string(from)}
	default:
		return fmt.Errorf("budget: unsupported transition to %s", to)
	}

	res, err := r.pool.Exec(ctx, tag, args...)
	if err != nil {
		return fmt.Errorf("budget: transition request: %w", err)
	}
	if res.RowsAffected() == 0 {
		return shared.ErrStateConflict
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
