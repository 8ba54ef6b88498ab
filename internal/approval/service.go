package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian/internal/shared"
)

// RoleDirectory resolves fallback-role membership when a voucher type has no
// approver mapping.
type RoleDirectory interface {
	UsersWithRole(ctx context.Context, roleName string) ([]string, error)
}

// Auditor records portal-side audit entries alongside the ERP approval log.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates evaluation and the approval write path.
type Service struct {
	repo   Repository
	roles  RoleDirectory
	audit  Auditor
	rules  Rules
	logger *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, roles RoleDirectory, audit Auditor, rules Rules, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: roles, audit: audit, rules: rules, logger: logger}
}

// Evaluate computes the approval decision for a voucher without side effects.
func (s *Service) Evaluate(ctx context.Context, kind VoucherKind, voucherNo, actingUser string) (Decision, *VoucherFacts, error) {
	if !kind.IsValid() {
		return Decision{}, nil, fmt.Errorf("approval: unknown voucher kind %q", kind)
	}
	facts, err := s.repo.VoucherFacts(ctx, kind, voucherNo)
	if err != nil {
		return Decision{}, nil, err
	}

	approvers, err := s.resolveApprovers(ctx, facts.VoucherType)
	if err != nil {
		return Decision{}, nil, err
	}

	// The decision carries the computed ratio; clamping is presentation only.
	decision := Evaluate(*facts, approvers, actingUser, s.rules)
	return decision, facts, nil
}

// Approve runs the evaluation and, when it passes (or allowOverride permits a
// soft failure), flips the ERP status and writes the approval log in one
// transaction. Approving an already-approved voucher is a no-op conflict.
func (s *Service) Approve(ctx context.Context, kind VoucherKind, voucherNo, actingUser string, allowOverride bool, note string) (Decision, error) {
	decision, facts, err := s.Evaluate(ctx, kind, voucherNo, actingUser)
	if err != nil {
		return Decision{}, err
	}

	switch {
	case decision.State == StateFailed:
		return decision, fmt.Errorf("approval: %s", decision.Reason)
	case !decision.Passed && !(allowOverride && decision.NeedsOverride):
		return decision, fmt.Errorf("approval: not eligible: %s", decision.Reason)
	}

	if !decision.Passed {
		note = appendOverrideNote(note, decision.Reason)
	}

	entry := LogEntry{
		VoucherNo: voucherNo,
		Kind:      kind,
		Ratio:     decision.ApprovalRatio,
		Amount:    facts.DeclaredAmount,
		Approver:  actingUser,
		Note:      note,
	}
	if err := s.repo.RecordApproval(ctx, entry); err != nil {
		if errors.Is(err, shared.ErrStateConflict) {
			// Someone approved first; report a conflict, state is unchanged.
			return decision, shared.ErrStateConflict
		}
		return decision, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorCode: actingUser,
			Action:    "APPROVE",
			Entity:    string(kind),
			EntityID:  voucherNo,
			Meta: map[string]any{
				"ratio":    decision.ApprovalRatio.String(),
				"amount":   facts.DeclaredAmount.String(),
				"override": !decision.Passed,
			},
		}); err != nil && s.logger != nil {
			s.logger.Warn("record approval audit", slog.Any("error", err))
		}
	}

	decision.Passed = true
	decision.State = StateApproved
	return decision, nil
}

// History returns the voucher's immutable approval trail.
func (s *Service) History(ctx context.Context, voucherNo string) ([]LogEntry, error) {
	return s.repo.History(ctx, voucherNo)
}

func (s *Service) resolveApprovers(ctx context.Context, voucherType string) ([]string, error) {
	approvers, err := s.repo.ApproverCodes(ctx, voucherType)
	if err != nil {
		return nil, err
	}
	if len(approvers) > 0 {
		return approvers, nil
	}
	if s.roles == nil {
		return nil, nil
	}
	// Empty mapping defers to the configured admin role.
	fallback, err := s.roles.UsersWithRole(ctx, s.rules.FallbackRole)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("resolve fallback approvers", slog.Any("error", err))
		}
		return nil, nil
	}
	return fallback, nil
}

func appendOverrideNote(note, reason string) string {
	if note == "" {
		return "OVERRIDE: " + reason
	}
	return note + " | OVERRIDE: " + reason
}
