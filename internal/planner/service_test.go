package planner

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/shared"
)

type fakeRepo struct {
	vouchers []DeliveryVoucher

	taggedVoucher  string
	taggedCustomer string
	taggedDay      string
}

func (f *fakeRepo) OpenVouchers(context.Context) ([]DeliveryVoucher, error) {
	var out []DeliveryVoucher
	for _, v := range f.vouchers {
		if !v.Delivered() {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) VouchersWithRecentDeliveries(_ context.Context, since time.Time) ([]DeliveryVoucher, error) {
	var out []DeliveryVoucher
	for _, v := range f.vouchers {
		if !v.Delivered() || !v.DeliveredAt.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) TagVoucher(_ context.Context, voucherNo, plannedDay string, _ time.Time) error {
	for _, v := range f.vouchers {
		if v.VoucherNo == voucherNo && !v.Delivered() {
			f.taggedVoucher = voucherNo
			f.taggedDay = plannedDay
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRepo) TagCustomer(_ context.Context, customerCode, plannedDay string, _ time.Time) (int, error) {
	n := 0
	for _, v := range f.vouchers {
		if v.CustomerCode == customerCode && !v.Delivered() {
			n++
		}
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	f.taggedCustomer = customerCode
	f.taggedDay = plannedDay
	return n, nil
}

type recordingAuditor struct {
	logs []shared.AuditLog
}

func (a *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestRetagSingleVoucher(t *testing.T) {
	repo := &fakeRepo{vouchers: []DeliveryVoucher{voucher("DN-100", "C100", "MON", 10)}}
	audit := &recordingAuditor{}
	svc := NewService(repo, audit, slog.Default())

	affected, err := svc.Retag(context.Background(), RetagInput{
		Scope:      ScopeVoucher,
		VoucherNo:  "DN-100",
		PlannedDay: "WED",
		Actor:      "U1001",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	assert.Equal(t, "DN-100", repo.taggedVoucher)
	assert.Equal(t, "WED", repo.taggedDay)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "RETAG", audit.logs[0].Action)
	assert.Equal(t, "DN-100", audit.logs[0].EntityID)
}

func TestRetagCustomerWide(t *testing.T) {
	delivered := voucher("DN-202", "C200", "MON", 10)
	delivered.DeliveredAt = tsp(5, 10)
	repo := &fakeRepo{vouchers: []DeliveryVoucher{
		voucher("DN-200", "C200", "MON", 10),
		voucher("DN-201", "C200", "TUE", 10),
		delivered,
	}}
	svc := NewService(repo, nil, slog.Default())

	affected, err := svc.Retag(context.Background(), RetagInput{
		Scope:        ScopeCustomer,
		CustomerCode: "C200",
		PlannedDay:   "FRI",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, affected, "delivered vouchers stay untouched")
	assert.Equal(t, "C200", repo.taggedCustomer)
}

func TestRetagValidation(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, slog.Default())

	tests := []struct {
		name  string
		input RetagInput
	}{
		{"missing planned day", RetagInput{Scope: ScopeVoucher, VoucherNo: "DN-1"}},
		{"voucher scope without voucher", RetagInput{Scope: ScopeVoucher, PlannedDay: "MON"}},
		{"customer scope without customer", RetagInput{Scope: ScopeCustomer, PlannedDay: "MON"}},
		{"unknown scope", RetagInput{Scope: "BOTH", VoucherNo: "DN-1", PlannedDay: "MON"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Retag(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidRetag)
		})
	}
}

func TestRetagUnknownVoucher(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, slog.Default())

	_, err := svc.Retag(context.Background(), RetagInput{
		Scope:      ScopeVoucher,
		VoucherNo:  "DN-404",
		PlannedDay: "MON",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoardsFromService(t *testing.T) {
	open := voucher("DN-300", "C300", "MON", 10)
	open.TaggedAt = tsp(2, 9)
	repo := &fakeRepo{vouchers: []DeliveryVoucher{open}}
	svc := NewService(repo, nil, slog.Default())

	grouped, err := svc.GroupedBoard(context.Background())
	require.NoError(t, err)
	assert.Len(t, grouped.Columns["MON"], 1)

	ungrouped, err := svc.UngroupedBoard(context.Background())
	require.NoError(t, err)
	assert.Len(t, ungrouped.Columns["MON"], 1)
}
