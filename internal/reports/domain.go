// Package reports aggregates ERP replica tables into dashboards: executive
// KPIs, sales summaries, inventory aging, AR/AP aging buckets and the OTIF
// delivery metric. Results are cached in Redis with a multi-hour TTL.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// KPISummary is the executive dashboard payload.
type KPISummary struct {
	Period         string          `json:"period"`
	Revenue        decimal.Decimal `json:"revenue"`
	COGS           decimal.Decimal `json:"cogs"`
	GrossMargin    decimal.Decimal `json:"gross_margin"`
	OpenOrders     int             `json:"open_orders"`
	OpenDeliveries int             `json:"open_deliveries"`
	AROutstanding  decimal.Decimal `json:"ar_outstanding"`
	APOutstanding  decimal.Decimal `json:"ap_outstanding"`
	OTIF           float64         `json:"otif"`
}

// SalesSummaryRow is one salesperson's totals for a period.
type SalesSummaryRow struct {
	Salesperson string          `json:"salesperson"`
	OrderCount  int             `json:"order_count"`
	TotalSale   decimal.Decimal `json:"total_sale"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Margin      decimal.Decimal `json:"margin"`
}

// AgingRow is one party's outstanding balance split into buckets.
type AgingRow struct {
	PartyCode   string          `json:"party_code"`
	PartyName   string          `json:"party_name"`
	Current     decimal.Decimal `json:"current"`
	Days30      decimal.Decimal `json:"days_30"`
	Days60      decimal.Decimal `json:"days_60"`
	Days90      decimal.Decimal `json:"days_90"`
	Days120     decimal.Decimal `json:"days_120"`
	Over120     decimal.Decimal `json:"over_120"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// InventoryAgingRow is one item's stock value split by age of receipt.
type InventoryAgingRow struct {
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
	AgeBucket string          `json:"age_bucket"`
}

// OTIFResult is the on-time-in-full delivery performance for a period.
type OTIFResult struct {
	Period    string  `json:"period"`
	Total     int     `json:"total"`
	OnTime    int     `json:"on_time"`
	InFull    int     `json:"in_full"`
	OnTimeFul int     `json:"on_time_in_full"`
	Rate      float64 `json:"rate"`
}

// agingBuckets is the fixed bucket order used by reports and exports.
var agingBuckets = []string{"CURRENT", "1-30", "31-60", "61-90", "91-120", "120+"}

// BucketFor classifies days-past-due into an aging bucket.
func BucketFor(daysPastDue int) string {
	switch {
	case daysPastDue <= 0:
		return agingBuckets[0]
	case daysPastDue <= 30:
		return agingBuckets[1]
	case daysPastDue <= 60:
		return agingBuckets[2]
	case daysPastDue <= 90:
		return agingBuckets[3]
	case daysPastDue <= 120:
		return agingBuckets[4]
	default:
		return agingBuckets[5]
	}
}

// DaysPastDue is the whole-day difference between asOf and the due date.
func DaysPastDue(dueDate, asOf time.Time) int {
	return int(asOf.Sub(dueDate).Hours() / 24)
}
