package approval

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ratioBase       = decimal.NewFromInt(30)
	ratioMultiplier = decimal.NewFromInt(100)
)

// Evaluate decides whether actingUser may approve the voucher right now.
// It is a pure function of the voucher facts, the resolved approver set and
// the configured rules; the only state it ever touches lives in its inputs.
func Evaluate(facts VoucherFacts, approvers []string, actingUser string, rules Rules) Decision {
	if reason := validateFacts(facts); reason != "" {
		return Decision{State: StateFailed, Reason: reason}
	}

	// Sales-order pre-gate: a non-DTK order must be fully traceable to an
	// originating quotation.
	if facts.Kind == KindSalesOrder && facts.VoucherType != DTKVoucherType {
		if facts.LineCount == 0 || facts.QuotationLinked < facts.LineCount {
			return Decision{
				State: StateFailed,
				Reason: fmt.Sprintf("only %d of %d lines trace back to a quotation",
					facts.QuotationLinked, facts.LineCount),
			}
		}
	}

	ratio := computeRatio(facts.TotalSale, facts.TotalCost)

	required, hasThreshold := rules.ClassThresholds[facts.CustomerClass]
	ratioOK := !hasThreshold || ratio.GreaterThanOrEqual(required)

	// DTK orders below the small-amount limit bypass the large-order gate.
	smallDTK := facts.Kind == KindSalesOrder &&
		facts.VoucherType == DTKVoucherType &&
		facts.DeclaredAmount.LessThan(rules.SmallDTKMax)

	largeOrder := !smallDTK && facts.DeclaredAmount.GreaterThanOrEqual(rules.LargeOrderMin)

	if !ratioOK {
		return Decision{
			State: StatePending,
			Reason: fmt.Sprintf("ratio %s below required %s for class %s",
				DisplayRatio(ratio), required, facts.CustomerClass),
			ApprovalRatio: ratio,
			NeedsOverride: true,
		}
	}

	if !largeOrder {
		// Below the gate the voucher self-approves.
		return Decision{
			Passed:           true,
			State:            StateApproved,
			Reason:           "self-approved below large-order threshold",
			ApproverRequired: actingUser,
			ApprovalRatio:    ratio,
		}
	}

	if len(approvers) == 0 {
		return Decision{
			State:            StatePending,
			Reason:           fmt.Sprintf("no approver mapped for voucher type %s; waiting on %s role", facts.VoucherType, rules.FallbackRole),
			ApproverRequired: rules.FallbackRole,
			ApprovalRatio:    ratio,
			NeedsOverride:    true,
		}
	}

	for _, code := range approvers {
		if code == actingUser {
			return Decision{
				Passed:           true,
				State:            StateApproved,
				Reason:           "approver matched",
				ApproverRequired: actingUser,
				ApprovalRatio:    ratio,
			}
		}
	}

	return Decision{
		State:            StatePending,
		Reason:           fmt.Sprintf("waiting on %s", strings.Join(approvers, ", ")),
		ApproverRequired: strings.Join(approvers, ","),
		ApprovalRatio:    ratio,
		NeedsOverride:    true,
	}
}

// validateFacts applies the hard validation gate. A non-empty return is a
// terminal FAILED reason.
func validateFacts(f VoucherFacts) string {
	switch {
	case strings.TrimSpace(f.Salesperson) == "":
		return "no salesperson assigned"
	case f.TotalSale.IsZero():
		return "aggregated sale amount is zero"
	case f.TotalCost.IsZero():
		return "aggregated cost amount is zero"
	case f.TotalSale.IsNegative() || f.TotalCost.IsNegative():
		return "aggregated amounts must be positive"
	case f.Kind == KindSalesOrder && f.DatedLineCount < f.LineCount:
		return fmt.Sprintf("%d of %d lines missing a delivery date", f.LineCount-f.DatedLineCount, f.LineCount)
	}
	return ""
}

// computeRatio returns 30 + 100 * sale / cost. Callers must have validated
// that both figures are positive.
func computeRatio(sale, cost decimal.Decimal) decimal.Decimal {
	return ratioBase.Add(ratioMultiplier.Mul(sale.Div(cost)))
}

// DisplayRatio clamps the ratio for presentation.
func DisplayRatio(ratio decimal.Decimal) decimal.Decimal {
	if ratio.GreaterThan(displayRatioCap) {
		return displayRatioCap
	}
	return ratio
}
