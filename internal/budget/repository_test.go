package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestFoldFiguresMonthAndYTD(t *testing.T) {
	f := PlanFigures{GroupCode: "G-SALES", ControlLevel: ControlHard}
	period := month(2026, time.August)

	plans := []monthAmount{
		{Month: month(2026, time.July), Amount: decimal.NewFromInt(3_000_000)},
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(10_000_000)},
		{Month: month(2026, time.September), Amount: decimal.NewFromInt(4_000_000)},
		{Month: month(2025, time.August), Amount: decimal.NewFromInt(99_000_000)},
	}
	actuals := []monthAmount{
		{Month: month(2026, time.July), Amount: decimal.NewFromInt(2_000_000)},
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(9_500_000)},
	}

	foldFigures(&f, period, plans, actuals)

	assert.True(t, f.MonthPlan.Equal(decimal.NewFromInt(10_000_000)))
	assert.True(t, f.MonthActual.Equal(decimal.NewFromInt(9_500_000)))
	assert.True(t, f.YTDPlan.Equal(decimal.NewFromInt(13_000_000)))
	assert.True(t, f.YTDActual.Equal(decimal.NewFromInt(11_500_000)))
}

// Each side must only be counted once no matter how many rows the other side
// has in the same month; a joined aggregation would multiply them.
func TestFoldFiguresSidesDoNotMultiply(t *testing.T) {
	f := PlanFigures{GroupCode: "G-SALES", ControlLevel: ControlHard}
	period := month(2026, time.August)

	plans := []monthAmount{
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(10_000_000)},
	}
	actuals := []monthAmount{
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(4_000_000)},
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(3_000_000)},
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(1_500_000)},
		{Month: month(2026, time.August), Amount: decimal.NewFromInt(1_000_000)},
	}

	foldFigures(&f, period, plans, actuals)

	assert.True(t, f.MonthPlan.Equal(decimal.NewFromInt(10_000_000)))
	assert.True(t, f.MonthActual.Equal(decimal.NewFromInt(9_500_000)))

	// remaining 500,000 so a 1,000,000 request must hard-block.
	result := MonthlyGate(f, decimal.NewFromInt(1_000_000))
	assert.Equal(t, GateBlock, result.Status)
	assert.True(t, result.Remaining.Equal(decimal.NewFromInt(500_000)))
}
