package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-5, "CURRENT"},
		{0, "CURRENT"},
		{1, "1-30"},
		{30, "1-30"},
		{31, "31-60"},
		{60, "31-60"},
		{61, "61-90"},
		{90, "61-90"},
		{91, "91-120"},
		{120, "91-120"},
		{121, "120+"},
		{400, "120+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.days), "days=%d", tt.days)
	}
}

func TestBuildAgingRowsBucketsPerParty(t *testing.T) {
	asOf := day(30)
	invoices := []OpenInvoice{
		{PartyCode: "C100", PartyName: "Acme", DueDate: day(25), Outstanding: decimal.NewFromInt(100)},
		{PartyCode: "C100", PartyName: "Acme", DueDate: day(28), Outstanding: decimal.NewFromInt(50)},
		{PartyCode: "C100", PartyName: "Acme", DueDate: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), Outstanding: decimal.NewFromInt(70)},
		{PartyCode: "C200", PartyName: "Globex", DueDate: day(30), Outstanding: decimal.NewFromInt(900)},
	}

	rows := BuildAgingRows(invoices, asOf)

	require.Len(t, rows, 2)
	acme := rows[0]
	assert.Equal(t, "C100", acme.PartyCode)
	assert.True(t, acme.Days30.Equal(decimal.NewFromInt(150)), "days_30 = %s", acme.Days30)
	assert.True(t, acme.Over120.Equal(decimal.NewFromInt(70)))
	assert.True(t, acme.Outstanding.Equal(decimal.NewFromInt(220)))

	globex := rows[1]
	assert.True(t, globex.Current.Equal(decimal.NewFromInt(900)), "due today is current")
}

func TestBuildAgingRowsEmpty(t *testing.T) {
	assert.Empty(t, BuildAgingRows(nil, day(1)))
}

func TestComputeOTIF(t *testing.T) {
	outcomes := []DeliveryOutcome{
		{VoucherNo: "DN-1", OnTime: true, InFull: true},
		{VoucherNo: "DN-2", OnTime: true, InFull: false},
		{VoucherNo: "DN-3", OnTime: false, InFull: true},
		{VoucherNo: "DN-4", OnTime: true, InFull: true},
	}

	result := ComputeOTIF(outcomes, "2026-06")

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.OnTime)
	assert.Equal(t, 3, result.InFull)
	assert.Equal(t, 2, result.OnTimeFul)
	assert.InDelta(t, 0.5, result.Rate, 1e-9)
}

func TestComputeOTIFNoDeliveries(t *testing.T) {
	result := ComputeOTIF(nil, "2026-06")
	assert.Zero(t, result.Rate)
	assert.Zero(t, result.Total)
}
