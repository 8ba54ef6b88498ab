package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/shared"
)

var (
	// ErrBlocked indicates a HARD control level refused the operation.
	ErrBlocked = errors.New("budget: blocked by hard control level")
	// ErrInvalidAmount indicates a non-positive request amount.
	ErrInvalidAmount = errors.New("budget: amount must be positive")
)

// Auditor records portal-side audit entries for budget decisions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service enforces the budget gates and the request lifecycle.
type Service struct {
	repo   Repository
	audit  Auditor
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// CreateRequestInput describes a new expense request.
type CreateRequestInput struct {
	CostCenterCode string
	Amount         decimal.Decimal
	Purpose        string
	RequestedBy    string
}

// CreateRequest gates the request against the group's remaining monthly
// budget and creates it when allowed. SOFT breaches carry the warning on the
// stored request.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*ExpenseRequest, GateResult, error) {
	if !input.Amount.IsPositive() {
		return nil, GateResult{}, ErrInvalidAmount
	}

	figures, err := s.repo.GroupFigures(ctx, input.CostCenterCode, s.now())
	if err != nil {
		return nil, GateResult{}, err
	}

	gate := MonthlyGate(*figures, input.Amount)
	if gate.Status == GateBlock {
		return nil, gate, fmt.Errorf("%w: %s", ErrBlocked, gate.Message)
	}

	req := ExpenseRequest{
		CostCenterCode: input.CostCenterCode,
		GroupCode:      figures.GroupCode,
		Amount:         input.Amount,
		Purpose:        input.Purpose,
		Status:         StatusPending,
		RequestedBy:    input.RequestedBy,
	}
	if gate.Status == GateWarn {
		req.Warning = gate.Message
	}

	id, err := s.repo.CreateRequest(ctx, req)
	if err != nil {
		return nil, gate, err
	}

	created, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, gate, err
	}
	return created, gate, nil
}

// Approve moves PENDING to APPROVED, gated against the cumulative YTD budget.
func (s *Service) Approve(ctx context.Context, id int64, actor string) (*ExpenseRequest, GateResult, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, GateResult{}, err
	}
	if !req.Status.CanTransitionTo(StatusApproved) {
		return req, GateResult{}, shared.ErrStateConflict
	}

	figures, err := s.repo.GroupFigures(ctx, req.CostCenterCode, s.now())
	if err != nil {
		return nil, GateResult{}, err
	}

	gate := YTDGate(*figures, req.Amount)
	if gate.Status == GateBlock {
		return req, gate, fmt.Errorf("%w: %s", ErrBlocked, gate.Message)
	}

	warning := ""
	if gate.Status == GateWarn {
		warning = gate.Message
	}
	if err := s.repo.TransitionRequest(ctx, id, StatusPending, StatusApproved, actor, warning); err != nil {
		return req, gate, err
	}
	s.recordAudit(ctx, actor, "APPROVE", id, map[string]any{"gate": string(gate.Status)})

	updated, err := s.repo.GetRequest(ctx, id)
	return updated, gate, err
}

// Reject moves PENDING to REJECTED.
func (s *Service) Reject(ctx context.Context, id int64, actor, reason string) (*ExpenseRequest, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(StatusRejected) {
		return req, shared.ErrStateConflict
	}
	if err := s.repo.TransitionRequest(ctx, id, StatusPending, StatusRejected, actor, reason); err != nil {
		return req, err
	}
	s.recordAudit(ctx, actor, "REJECT", id, map[string]any{"reason": reason})
	return s.repo.GetRequest(ctx, id)
}

// MarkPaid moves APPROVED to PAID, the terminal state.
func (s *Service) MarkPaid(ctx context.Context, id int64, actor string) (*ExpenseRequest, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(StatusPaid) {
		return req, shared.ErrStateConflict
	}
	if err := s.repo.TransitionRequest(ctx, id, StatusApproved, StatusPaid, actor, ""); err != nil {
		return req, err
	}
	s.recordAudit(ctx, actor, "PAY", id, nil)
	return s.repo.GetRequest(ctx, id)
}

// Get fetches one request.
func (s *Service) Get(ctx context.Context, id int64) (*ExpenseRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

// List returns requests by status.
func (s *Service) List(ctx context.Context, status RequestStatus, limit, offset int) ([]ExpenseRequest, int, error) {
	return s.repo.ListRequests(ctx, status, limit, offset)
}

// CheckRemaining surfaces the monthly gate without creating anything. The
// chatbot and dashboards use it for "budget left" questions.
func (s *Service) CheckRemaining(ctx context.Context, costCenterCode string) (*PlanFigures, error) {
	return s.repo.GroupFigures(ctx, costCenterCode, s.now())
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorCode: actor,
		Action:    action,
		Entity:    "EXPENSE_REQUEST",
		EntityID:  fmt.Sprintf("%d", id),
		Meta:      meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("record budget audit", slog.Any("error", err))
	}
}
