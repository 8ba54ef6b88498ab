package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BuildAgingRows folds open invoices into per-party bucket rows.
func BuildAgingRows(invoices []OpenInvoice, asOf time.Time) []AgingRow {
	byParty := map[string]*AgingRow{}
	for _, inv := range invoices {
		row, ok := byParty[inv.PartyCode]
		if !ok {
			row = &AgingRow{
				PartyCode: inv.PartyCode,
				PartyName: inv.PartyName,
				Current:   decimal.Zero, Days30: decimal.Zero, Days60: decimal.Zero,
				Days90: decimal.Zero, Days120: decimal.Zero, Over120: decimal.Zero,
				Outstanding: decimal.Zero,
			}
			byParty[inv.PartyCode] = row
		}
		switch BucketFor(DaysPastDue(inv.DueDate, asOf)) {
		case "CURRENT":
			row.Current = row.Current.Add(inv.Outstanding)
		case "1-30":
			row.Days30 = row.Days30.Add(inv.Outstanding)
		case "31-60":
			row.Days60 = row.Days60.Add(inv.Outstanding)
		case "61-90":
			row.Days90 = row.Days90.Add(inv.Outstanding)
		case "91-120":
			row.Days120 = row.Days120.Add(inv.Outstanding)
		default:
			row.Over120 = row.Over120.Add(inv.Outstanding)
		}
		row.Outstanding = row.Outstanding.Add(inv.Outstanding)
	}

	out := make([]AgingRow, 0, len(byParty))
	for _, row := range byParty {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PartyCode < out[j].PartyCode
	})
	return out
}

// ComputeOTIF derives the on-time-in-full rate from delivery outcomes.
func ComputeOTIF(outcomes []DeliveryOutcome, period string) OTIFResult {
	result := OTIFResult{Period: period, Total: len(outcomes)}
	for _, o := range outcomes {
		if o.OnTime {
			result.OnTime++
		}
		if o.InFull {
			result.InFull++
		}
		if o.OnTime && o.InFull {
			result.OnTimeFul++
		}
	}
	if result.Total > 0 {
		result.Rate = float64(result.OnTimeFul) / float64(result.Total)
	}
	return result
}
