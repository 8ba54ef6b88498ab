package planner

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day int, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

func tsp(day int, hour int) *time.Time {
	t := ts(day, hour)
	return &t
}

func voucher(no, customer, plannedDay string, amount int64) DeliveryVoucher {
	return DeliveryVoucher{
		VoucherNo:    no,
		CustomerCode: customer,
		CustomerName: "Customer " + customer,
		Amount:       decimal.NewFromInt(amount),
		OrderDate:    ts(1, 9),
		PlannedDay:   plannedDay,
	}
}

func TestGroupedBoardMostRecentTagWins(t *testing.T) {
	v1 := voucher("DN-001", "C100", "MON", 500)
	v1.TaggedAt = tsp(2, 10)
	v2 := voucher("DN-002", "C100", "WED", 300)
	v2.TaggedAt = tsp(3, 10)
	v3 := voucher("DN-003", "C100", "MON", 200)
	v3.TaggedAt = tsp(1, 10)

	board := BuildGroupedBoard([]DeliveryVoucher{v1, v2, v3})

	require.Len(t, board.Columns["WED"], 1)
	card := board.Columns["WED"][0]
	assert.Equal(t, "C100", card.CustomerCode)
	assert.Equal(t, 3, card.VoucherCount)
	assert.True(t, card.TotalAmount.Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, board.Columns["MON"], "older tags must not produce extra cards")
}

func TestGroupedBoardUntaggedCustomerLandsUnplanned(t *testing.T) {
	board := BuildGroupedBoard([]DeliveryVoucher{voucher("DN-010", "C200", "", 100)})

	require.Len(t, board.Columns[UnplannedDay], 1)
	assert.Equal(t, UnplannedDay, board.Columns[UnplannedDay][0].PlannedDay)
}

func TestGroupedBoardSkipsDelivered(t *testing.T) {
	open := voucher("DN-020", "C300", "FRI", 100)
	open.TaggedAt = tsp(2, 9)
	done := voucher("DN-021", "C300", "FRI", 900)
	done.TaggedAt = tsp(2, 9)
	done.DeliveredAt = tsp(4, 16)

	board := BuildGroupedBoard([]DeliveryVoucher{open, done})

	require.Len(t, board.Columns["FRI"], 1)
	card := board.Columns["FRI"][0]
	assert.Equal(t, 1, card.VoucherCount)
	assert.True(t, card.TotalAmount.Equal(decimal.NewFromInt(100)))
}

func TestGroupedBoardOneCardPerCustomer(t *testing.T) {
	a := voucher("DN-030", "C400", "TUE", 50)
	a.TaggedAt = tsp(2, 9)
	b := voucher("DN-031", "C500", "TUE", 70)
	b.TaggedAt = tsp(2, 9)

	board := BuildGroupedBoard([]DeliveryVoucher{a, b})

	require.Len(t, board.Columns["TUE"], 2)
	assert.Equal(t, "C400", board.Columns["TUE"][0].CustomerCode)
	assert.Equal(t, "C500", board.Columns["TUE"][1].CustomerCode)
}

func TestUngroupedBoardTrailingWindow(t *testing.T) {
	now := ts(15, 12)

	open := voucher("DN-040", "C600", "MON", 100)
	recent := voucher("DN-041", "C600", "MON", 100)
	recent.DeliveredAt = tsp(10, 12)
	stale := voucher("DN-042", "C600", "MON", 100)
	stale.DeliveredAt = tsp(7, 12)

	board := BuildUngroupedBoard([]DeliveryVoucher{open, recent, stale}, now)

	require.Len(t, board.Columns["MON"], 2)
	nos := []string{board.Columns["MON"][0].VoucherNo, board.Columns["MON"][1].VoucherNo}
	assert.ElementsMatch(t, []string{"DN-040", "DN-041"}, nos)
}

func TestUngroupedBoardWindowBoundaryInclusive(t *testing.T) {
	now := ts(15, 12)
	edge := voucher("DN-050", "C700", "THU", 100)
	edge.DeliveredAt = tsp(8, 12)

	board := BuildUngroupedBoard([]DeliveryVoucher{edge}, now)

	require.Len(t, board.Columns["THU"], 1)
}

func TestUngroupedBoardEachVoucherOwnCard(t *testing.T) {
	a := voucher("DN-060", "C800", "SAT", 10)
	b := voucher("DN-061", "C800", "SAT", 20)

	board := BuildUngroupedBoard([]DeliveryVoucher{a, b}, ts(15, 12))

	assert.Len(t, board.Columns["SAT"], 2)
}
