package planner

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BuildGroupedBoard merges open vouchers per customer. When a customer's
// vouchers carry different planned-day tags, the most recently assigned one
// wins for the whole card.
func BuildGroupedBoard(vouchers []DeliveryVoucher) GroupedBoard {
	byCustomer := map[string][]DeliveryVoucher{}
	for _, v := range vouchers {
		if v.Delivered() {
			continue
		}
		byCustomer[v.CustomerCode] = append(byCustomer[v.CustomerCode], v)
	}

	board := GroupedBoard{Columns: map[string][]CustomerCard{}}
	for code, group := range byCustomer {
		card := CustomerCard{
			CustomerCode: code,
			CustomerName: group[0].CustomerName,
			PlannedDay:   UnplannedDay,
			TotalAmount:  decimal.Zero,
			VoucherCount: len(group),
			Vouchers:     group,
		}
		var latest time.Time
		for _, v := range group {
			card.TotalAmount = card.TotalAmount.Add(v.Amount)
			if v.PlannedDay == "" || v.TaggedAt == nil {
				continue
			}
			if v.TaggedAt.After(latest) {
				latest = *v.TaggedAt
				card.PlannedDay = v.PlannedDay
			}
		}
		sort.Slice(card.Vouchers, func(i, j int) bool {
			return card.Vouchers[i].OrderDate.Before(card.Vouchers[j].OrderDate)
		})
		board.Columns[card.PlannedDay] = append(board.Columns[card.PlannedDay], card)
	}

	for day := range board.Columns {
		cards := board.Columns[day]
		sort.Slice(cards, func(i, j int) bool {
			return cards[i].CustomerCode < cards[j].CustomerCode
		})
	}
	return board
}

// BuildUngroupedBoard lists every voucher on its own card. Delivered vouchers
// stay visible only inside the trailing window.
func BuildUngroupedBoard(vouchers []DeliveryVoucher, now time.Time) UngroupedBoard {
	board := UngroupedBoard{Columns: map[string][]DeliveryVoucher{}}
	cutoff := now.Add(-deliveredWindow)
	for _, v := range vouchers {
		if v.Delivered() && v.DeliveredAt.Before(cutoff) {
			continue
		}
		day := v.PlannedDay
		if day == "" {
			day = UnplannedDay
		}
		board.Columns[day] = append(board.Columns[day], v)
	}
	for day := range board.Columns {
		col := board.Columns[day]
		sort.Slice(col, func(i, j int) bool {
			if col[i].CustomerCode != col[j].CustomerCode {
				return col[i].CustomerCode < col[j].CustomerCode
			}
			return col[i].VoucherNo < col[j].VoucherNo
		})
	}
	return board
}
