// Package planner aggregates open delivery vouchers into a kanban-style
// board keyed by a planned-day tag, and re-tags vouchers when cards move.
package planner

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnplannedDay is the column for vouchers carrying no planned-day tag.
const UnplannedDay = "UNPLANNED"

// deliveredWindow is how long delivered vouchers stay on the ungrouped board.
const deliveredWindow = 7 * 24 * time.Hour

// RetagScope selects single-voucher vs customer-wide re-tagging.
type RetagScope string

const (
	// ScopeVoucher re-tags one voucher.
	ScopeVoucher RetagScope = "VOUCHER"
	// ScopeCustomer re-tags every open voucher of the customer.
	ScopeCustomer RetagScope = "CUSTOMER"
)

// DeliveryVoucher is one open or recently delivered delivery note.
type DeliveryVoucher struct {
	VoucherNo    string          `json:"voucher_no"`
	CustomerCode string          `json:"customer_code"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	OrderDate    time.Time       `json:"order_date"`
	PlannedDay   string          `json:"planned_day"`
	TaggedAt     *time.Time      `json:"tagged_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
}

// Delivered reports whether the voucher has shipped.
func (v DeliveryVoucher) Delivered() bool {
	return v.DeliveredAt != nil
}

// CustomerCard merges every open voucher of one customer into a single card.
// The card carries the most recently assigned planned-day tag.
type CustomerCard struct {
	CustomerCode string            `json:"customer_code"`
	CustomerName string            `json:"customer_name"`
	PlannedDay   string            `json:"planned_day"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	VoucherCount int               `json:"voucher_count"`
	Vouchers     []DeliveryVoucher `json:"vouchers"`
}

// GroupedBoard is the per-customer view, one card per customer per column.
type GroupedBoard struct {
	Columns map[string][]CustomerCard `json:"columns"`
}

// UngroupedBoard lists every voucher individually, including delivered ones
// inside the trailing window.
type UngroupedBoard struct {
	Columns map[string][]DeliveryVoucher `json:"columns"`
}
