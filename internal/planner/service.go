package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian/internal/shared"
)

// ErrInvalidRetag indicates a malformed retag request.
var ErrInvalidRetag = errors.New("planner: invalid retag request")

// Auditor records portal-side audit entries for retag actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service builds the delivery boards and applies retags.
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

// GroupedBoard returns the per-customer view of open deliveries.
func (s *Service) GroupedBoard(ctx context.Context) (GroupedBoard, error) {
	vouchers, err := s.repo.OpenVouchers(ctx)
	if err != nil {
		return GroupedBoard{}, err
	}
	return BuildGroupedBoard(vouchers), nil
}

// UngroupedBoard returns the per-voucher view including deliveries inside the
// trailing window.
func (s *Service) UngroupedBoard(ctx context.Context) (UngroupedBoard, error) {
	now := s.now()
	vouchers, err := s.repo.VouchersWithRecentDeliveries(ctx, now.Add(-deliveredWindow))
	if err != nil {
		return UngroupedBoard{}, err
	}
	return BuildUngroupedBoard(vouchers, now), nil
}

// RetagInput describes a drag-and-drop move on the board.
type RetagInput struct {
	Scope        RetagScope
	VoucherNo    string
	CustomerCode string
	PlannedDay   string
	Actor        string
}

// Retag moves a card to another planned-day column. Customer scope re-tags
// every open voucher of the customer, voucher scope just the one.
func (s *Service) Retag(ctx context.Context, input RetagInput) (int, error) {
	if input.PlannedDay == "" {
		return 0, fmt.Errorf("%w: planned day required", ErrInvalidRetag)
	}

	var (
		affected int
		err      error
	)
	switch input.Scope {
	case ScopeVoucher:
		if input.VoucherNo == "" {
			return 0, fmt.Errorf("%w: voucher number required", ErrInvalidRetag)
		}
		err = s.repo.TagVoucher(ctx, input.VoucherNo, input.PlannedDay, s.now())
		affected = 1
	case ScopeCustomer:
		if input.CustomerCode == "" {
			return 0, fmt.Errorf("%w: customer code required", ErrInvalidRetag)
		}
		affected, err = s.repo.TagCustomer(ctx, input.CustomerCode, input.PlannedDay, s.now())
	default:
		return 0, fmt.Errorf("%w: unknown scope %q", ErrInvalidRetag, input.Scope)
	}
	if err != nil {
		return 0, err
	}

	s.recordAudit(ctx, input, affected)
	return affected, nil
}

func (s *Service) recordAudit(ctx context.Context, input RetagInput, affected int) {
	if s.audit == nil {
		return
	}
	entity := input.VoucherNo
	if input.Scope == ScopeCustomer {
		entity = input.CustomerCode
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorCode: input.Actor,
		Action:    "RETAG",
		Entity:    "DELIVERY_" + string(input.Scope),
		EntityID:  entity,
		Meta:      map[string]any{"planned_day": input.PlannedDay, "affected": affected},
	}); err != nil && s.logger != nil {
		s.logger.Warn("record retag audit", slog.Any("error", err))
	}
}
