// Package approval implements the profitability-ratio approval workflow for
// quotations and sales orders.
package approval

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherKind distinguishes the two approvable voucher families.
type VoucherKind string

const (
	KindQuotation  VoucherKind = "QUOTATION"
	KindSalesOrder VoucherKind = "SALES_ORDER"
)

// IsValid reports whether the kind is one of the approvable families.
func (k VoucherKind) IsValid() bool {
	return k == KindQuotation || k == KindSalesOrder
}

// DecisionState classifies an evaluation outcome.
type DecisionState string

const (
	// StateFailed marks hard validation failures. Never approvable without an
	// upstream data fix.
	StateFailed DecisionState = "FAILED"
	// StatePending marks soft failures: below-threshold ratio or a different
	// approver is required. Resolvable by the right actor or an override.
	StatePending DecisionState = "PENDING"
	// StateApproved means the acting user may approve right now.
	StateApproved DecisionState = "APPROVED"
)

// VoucherFacts carries the aggregated figures an evaluation needs. All values
// come from the ERP tables; the evaluator itself holds no state.
type VoucherFacts struct {
	VoucherNo      string
	Kind           VoucherKind
	VoucherType    string
	VoucherDate    time.Time
	CustomerCode   string
	CustomerClass  string
	Salesperson    string
	DeclaredAmount decimal.Decimal
	TotalSale      decimal.Decimal
	TotalCost      decimal.Decimal
	// Line completeness for sales orders.
	LineCount       int
	DatedLineCount  int
	QuotationLinked int
	OrderStatus     int
}

// Decision is the structured result of an approval evaluation.
type Decision struct {
	Passed           bool            `json:"passed"`
	State            DecisionState   `json:"state"`
	Reason           string          `json:"reason"`
	ApproverRequired string          `json:"approver_required"`
	ApprovalRatio    decimal.Decimal `json:"approval_ratio"`
	NeedsOverride    bool            `json:"needs_override"`
}

// Rules holds the configurable business thresholds. Finance owns the values;
// nothing in here is an algorithmic constant.
type Rules struct {
	ClassThresholds map[string]decimal.Decimal
	LargeOrderMin   decimal.Decimal
	SmallDTKMax     decimal.Decimal
	FallbackRole    string
}

// DTKVoucherType is the direct-sale voucher type exempt from quotation
// traceability and, below SmallDTKMax, from the large-order gate.
const DTKVoucherType = "DTK"

// displayRatioCap bounds the ratio shown to users.
var displayRatioCap = decimal.NewFromInt(9999)

// LogEntry is an immutable audit record written on successful approval.
type LogEntry struct {
	ID         int64           `json:"id"`
	VoucherNo  string          `json:"voucher_no"`
	Kind       VoucherKind     `json:"kind"`
	Ratio      decimal.Decimal `json:"ratio"`
	Amount     decimal.Decimal `json:"amount"`
	Approver   string          `json:"approver"`
	Note       string          `json:"note"`
	ApprovedAt time.Time       `json:"approved_at"`
}
