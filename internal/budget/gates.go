package budget

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MonthlyGate checks a new request against the group's remaining monthly
// budget. HARD groups block, SOFT groups warn.
func MonthlyGate(figures PlanFigures, amount decimal.Decimal) GateResult {
	remaining := figures.MonthPlan.Sub(figures.MonthActual)
	if amount.LessThanOrEqual(remaining) {
		return GateResult{Status: GatePass, Remaining: remaining}
	}

	msg := fmt.Sprintf("requested %s exceeds remaining monthly budget %s for group %s",
		amount, remaining, figures.GroupCode)
	if figures.ControlLevel == ControlHard {
		return GateResult{Status: GateBlock, Remaining: remaining, Message: msg}
	}
	return GateResult{Status: GateWarn, Remaining: remaining, Message: msg}
}

// YTDGate checks an approval against the cumulative year-to-date budget.
func YTDGate(figures PlanFigures, amount decimal.Decimal) GateResult {
	remaining := figures.YTDPlan.Sub(figures.YTDActual)
	if figures.YTDActual.Add(amount).LessThanOrEqual(figures.YTDPlan) {
		return GateResult{Status: GatePass, Remaining: remaining}
	}

	msg := fmt.Sprintf("approving %s would exceed YTD plan %s (actual %s) for group %s",
		amount, figures.YTDPlan, figures.YTDActual, figures.GroupCode)
	if figures.ControlLevel == ControlHard {
		return GateResult{Status: GateBlock, Remaining: remaining, Message: msg}
	}
	return GateResult{Status: GateWarn, Remaining: remaining, Message: msg}
}
