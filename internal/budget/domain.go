// Package budget tracks planned vs. actual spend per cost-center group and
// gates expense requests against the remaining budget.
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// ControlLevel decides how a budget breach is handled.
type ControlLevel string

const (
	// ControlHard rejects breaching requests outright.
	ControlHard ControlLevel = "HARD"
	// ControlSoft lets breaching requests through with a warning annotation.
	ControlSoft ControlLevel = "SOFT"
)

// RequestStatus is the expense request lifecycle state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
	StatusPaid     RequestStatus = "PAID"
)

// CanTransitionTo reports whether the lifecycle permits the move.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusPaid
	default:
		return false
	}
}

// CostCenter is a node in the hierarchical cost-center plan. Budget control
// applies at the parent group level.
type CostCenter struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	ParentCode   string       `json:"parent_code"`
	ControlLevel ControlLevel `json:"control_level"`
}

// PlanFigures aggregates plan vs. actual for a group and period.
type PlanFigures struct {
	GroupCode    string          `json:"group_code"`
	ControlLevel ControlLevel    `json:"control_level"`
	MonthPlan    decimal.Decimal `json:"month_plan"`
	MonthActual  decimal.Decimal `json:"month_actual"`
	YTDPlan      decimal.Decimal `json:"ytd_plan"`
	YTDActual    decimal.Decimal `json:"ytd_actual"`
}

// GateStatus classifies a budget gate outcome.
type GateStatus string

const (
	GatePass  GateStatus = "PASS"
	GateWarn  GateStatus = "WARN"
	GateBlock GateStatus = "BLOCK"
)

// GateResult is the outcome of a monthly or YTD budget check.
type GateResult struct {
	Status    GateStatus      `json:"status"`
	Remaining decimal.Decimal `json:"remaining"`
	Message   string          `json:"message,omitempty"`
}

// ExpenseRequest is a portal-created spend request against a cost center.
type ExpenseRequest struct {
	ID             int64           `json:"id"`
	CostCenterCode string          `json:"cost_center_code"`
	GroupCode      string          `json:"group_code"`
	Amount         decimal.Decimal `json:"amount"`
	Purpose        string          `json:"purpose"`
	Status         RequestStatus   `json:"status"`
	Warning        string          `json:"warning,omitempty"`
	RequestedBy    string          `json:"requested_by"`
	RequestedAt    time.Time       `json:"requested_at"`
	DecidedBy      string          `json:"decided_by,omitempty"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	PaidBy         string          `json:"paid_by,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}
