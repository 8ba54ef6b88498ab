package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the voucher or customer has no open deliveries.
var ErrNotFound = errors.New("planner: not found")

// Repository reads delivery vouchers and applies planned-day tags.
type Repository interface {
	OpenVouchers(ctx context.Context) ([]DeliveryVoucher, error)
	VouchersWithRecentDeliveries(ctx context.Context, since time.Time) ([]DeliveryVoucher, error)
	TagVoucher(ctx context.Context, voucherNo, plannedDay string, at time.Time) error
	TagCustomer(ctx context.Context, customerCode, plannedDay string, at time.Time) (int, error)
}

// PGRepository implements Repository over the ERP replica schema.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const voucherColumns = `d.voucher_no, d.customer_code, COALESCE(c.name, ''),
	d.amount, d.order_date, COALESCE(d.planned_day, ''), d.planned_day_tagged_at, d.delivered_at`

// OpenVouchers returns every undelivered delivery note.
func (r *PGRepository) OpenVouchers(ctx context.Context) ([]DeliveryVoucher, error) {
	query := fmt.Sprintf(`SELECT %s
FROM erp_delivery_notes d
JOIN erp_customers c ON c.code = d.customer_code
WHERE d.delivered_at IS NULL
ORDER BY d.customer_code, d.voucher_no`, voucherColumns)
	return r.queryVouchers(ctx, query)
}

// VouchersWithRecentDeliveries returns open vouchers plus delivered ones on or
// after the cutoff.
func (r *PGRepository) VouchersWithRecentDeliveries(ctx context.Context, since time.Time) ([]DeliveryVoucher, error) {
	query := fmt.Sprintf(`SELECT %s
FROM erp_delivery_notes d
JOIN erp_customers c ON c.code = d.customer_code
WHERE d.delivered_at IS NULL OR d.delivered_at >= $1
ORDER BY d.customer_code, d.voucher_no`, voucherColumns)
	return r.queryVouchers(ctx, query, since)
}

func (r *PGRepository) queryVouchers(ctx context.Context, query string, args ...any) ([]DeliveryVoucher, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("planner: load vouchers: %w", err)
	}
	defer rows.Close()

	var out []DeliveryVoucher
	for rows.Next() {
		var v DeliveryVoucher
		var amount decimal.Decimal
		if err := rows.Scan(&v.VoucherNo, &v.CustomerCode, &v.CustomerName,
			&amount, &v.OrderDate, &v.PlannedDay, &v.TaggedAt, &v.DeliveredAt); err != nil {
			return nil, err
		}
		v.Amount = amount
		out = append(out, v)
	}
	return out, rows.Err()
}

// TagVoucher re-tags one voucher. Delivered vouchers are not retaggable.
func (r *PGRepository) TagVoucher(ctx context.Context, voucherNo, plannedDay string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE erp_delivery_notes
SET planned_day = $2, planned_day_tagged_at = $3
WHERE voucher_no = $1 AND delivered_at IS NULL`, voucherNo, plannedDay, at)
	if err != nil {
		return fmt.Errorf("planner: tag voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TagCustomer re-tags every open voucher of the customer in one UPDATE.
func (r *PGRepository) TagCustomer(ctx context.Context, customerCode, plannedDay string, at time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE erp_delivery_notes
SET planned_day = $2, planned_day_tagged_at = $3
WHERE customer_code = $1 AND delivered_at IS NULL`, customerCode, plannedDay, at)
	if err != nil {
		return 0, fmt.Errorf("planner: tag customer vouchers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return int(tag.RowsAffected()), nil
}
