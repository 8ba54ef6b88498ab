package approval

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() Rules {
	return Rules{
		ClassThresholds: map[string]decimal.Decimal{
			"M": decimal.NewFromInt(150),
			"T": decimal.NewFromInt(138),
		},
		LargeOrderMin: decimal.NewFromInt(20_000_000),
		SmallDTKMax:   decimal.NewFromInt(5_000_000),
		FallbackRole:  "ADMIN",
	}
}

func baseFacts() VoucherFacts {
	return VoucherFacts{
		VoucherNo:      "QT-001",
		Kind:           KindQuotation,
		VoucherType:    "STD",
		CustomerClass:  "T",
		Salesperson:    "NV01",
		DeclaredAmount: decimal.NewFromInt(1_000_000),
		TotalSale:      decimal.NewFromInt(1_000_000),
		TotalCost:      decimal.NewFromInt(800_000),
		LineCount:      2,
		DatedLineCount: 2,
	}
}

func TestComputeRatioFormula(t *testing.T) {
	cases := []struct {
		sale, cost int64
		want       string
	}{
		{1_000_000, 800_000, "155"},
		{100, 100, "130"},
		{300, 200, "180"},
		{1, 1000, "30.1"},
	}
	for _, tc := range cases {
		got := computeRatio(decimal.NewFromInt(tc.sale), decimal.NewFromInt(tc.cost))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"sale=%d cost=%d got=%s want=%s", tc.sale, tc.cost, got, tc.want)
	}
}

func TestDisplayRatioClamp(t *testing.T) {
	huge := computeRatio(decimal.NewFromInt(1_000_000), decimal.NewFromInt(1))
	assert.True(t, DisplayRatio(huge).Equal(decimal.NewFromInt(9999)))

	normal := decimal.NewFromInt(155)
	assert.True(t, DisplayRatio(normal).Equal(normal))
}

func TestHardValidationGate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*VoucherFacts)
	}{
		{"missing salesperson", func(f *VoucherFacts) { f.Salesperson = "" }},
		{"zero sale", func(f *VoucherFacts) { f.TotalSale = decimal.Zero }},
		{"zero cost", func(f *VoucherFacts) { f.TotalCost = decimal.Zero }},
		{"negative cost", func(f *VoucherFacts) { f.TotalCost = decimal.NewFromInt(-1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facts := baseFacts()
			tc.mutate(&facts)
			d := Evaluate(facts, nil, "NV01", testRules())
			assert.Equal(t, StateFailed, d.State)
			assert.False(t, d.Passed)
			assert.False(t, d.NeedsOverride)
		})
	}
}

func TestOrderMissingLineDatesFailsHard(t *testing.T) {
	facts := baseFacts()
	facts.Kind = KindSalesOrder
	facts.VoucherType = DTKVoucherType
	facts.DatedLineCount = 1
	d := Evaluate(facts, nil, "NV01", testRules())
	assert.Equal(t, StateFailed, d.State)
}

func TestClassMThresholdSoftFailure(t *testing.T) {
	facts := baseFacts()
	facts.CustomerClass = "M"
	// ratio = 30 + 100*1.0 = 130 < 150
	facts.TotalSale = decimal.NewFromInt(500_000)
	facts.TotalCost = decimal.NewFromInt(500_000)
	d := Evaluate(facts, nil, "NV01", testRules())
	assert.Equal(t, StatePending, d.State)
	assert.False(t, d.Passed)
	assert.True(t, d.NeedsOverride)
}

func TestUnknownClassHasNoThreshold(t *testing.T) {
	facts := baseFacts()
	facts.CustomerClass = "X"
	// Deliberately poor ratio; still passes because no threshold applies.
	facts.TotalSale = decimal.NewFromInt(100)
	facts.TotalCost = decimal.NewFromInt(1_000_000)
	d := Evaluate(facts, nil, "NV01", testRules())
	assert.True(t, d.Passed)
	assert.Equal(t, StateApproved, d.State)
}

func TestClassTRatioAboveThreshold(t *testing.T) {
	facts := baseFacts()
	// sale 1,000,000 cost 800,000 class T: ratio 155 >= 138.
	d := Evaluate(facts, nil, "NV01", testRules())
	require.True(t, d.Passed)
	assert.True(t, d.ApprovalRatio.Equal(decimal.RequireFromString("155")))
}

func TestSmallOrderSelfApproves(t *testing.T) {
	facts := baseFacts()
	facts.DeclaredAmount = decimal.NewFromInt(19_999_999)
	d := Evaluate(facts, []string{"BOSS"}, "NV01", testRules())
	assert.True(t, d.Passed)
	assert.Equal(t, "NV01", d.ApproverRequired)
}

func TestLargeOrderRequiresMappedApprover(t *testing.T) {
	facts := baseFacts()
	facts.DeclaredAmount = decimal.NewFromInt(20_000_000)

	d := Evaluate(facts, []string{"BOSS", "CFO"}, "NV01", testRules())
	assert.False(t, d.Passed)
	assert.Equal(t, StatePending, d.State)
	assert.True(t, d.NeedsOverride)
	assert.Contains(t, d.Reason, "BOSS")

	d = Evaluate(facts, []string{"BOSS", "CFO"}, "CFO", testRules())
	assert.True(t, d.Passed)
	assert.Equal(t, StateApproved, d.State)
}

func TestLargeOrderEmptyMappingDefersToFallbackRole(t *testing.T) {
	facts := baseFacts()
	facts.DeclaredAmount = decimal.NewFromInt(25_000_000)
	d := Evaluate(facts, nil, "NV01", testRules())
	assert.False(t, d.Passed)
	assert.Equal(t, "ADMIN", d.ApproverRequired)
}

func TestNonDTKOrderRequiresFullQuotationTrace(t *testing.T) {
	facts := baseFacts()
	facts.Kind = KindSalesOrder
	facts.VoucherType = "STD"
	facts.QuotationLinked = 1 // of 2 lines
	d := Evaluate(facts, nil, "NV01", testRules())
	assert.Equal(t, StateFailed, d.State)

	facts.QuotationLinked = 2
	d = Evaluate(facts, nil, "NV01", testRules())
	assert.True(t, d.Passed)
}

func TestSmallDTKOrderBypassesLargeOrderGate(t *testing.T) {
	facts := baseFacts()
	facts.Kind = KindSalesOrder
	facts.VoucherType = DTKVoucherType
	facts.DeclaredAmount = decimal.NewFromInt(4_000_000)
	// No quotation traceability, no approver mapping: still self-approves.
	d := Evaluate(facts, nil, "NV01", testRules())
	assert.True(t, d.Passed)
	assert.Equal(t, "NV01", d.ApproverRequired)
}

func TestDTKOrderAboveSmallLimitStillGated(t *testing.T) {
	facts := baseFacts()
	facts.Kind = KindSalesOrder
	facts.VoucherType = DTKVoucherType
	facts.DeclaredAmount = decimal.NewFromInt(30_000_000)
	d := Evaluate(facts, []string{"BOSS"}, "NV01", testRules())
	assert.False(t, d.Passed)
	assert.Equal(t, StatePending, d.State)
}
