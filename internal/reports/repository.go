package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OpenInvoice is one unpaid AR or AP document feeding the aging report.
type OpenInvoice struct {
	PartyCode   string
	PartyName   string
	DueDate     time.Time
	Outstanding decimal.Decimal
}

// DeliveryOutcome is one delivered voucher feeding the OTIF metric.
type DeliveryOutcome struct {
	VoucherNo string
	OnTime    bool
	InFull    bool
}

// Repository reads report source rows from the ERP replica.
type Repository interface {
	KPIFigures(ctx context.Context, from, to time.Time) (*KPIFigures, error)
	SalesSummary(ctx context.Context, from, to time.Time) ([]SalesSummaryRow, error)
	OpenReceivables(ctx context.Context, asOf time.Time) ([]OpenInvoice, error)
	OpenPayables(ctx context.Context, asOf time.Time) ([]OpenInvoice, error)
	InventoryAging(ctx context.Context, asOf time.Time) ([]InventoryAgingRow, error)
	DeliveryOutcomes(ctx context.Context, from, to time.Time) ([]DeliveryOutcome, error)
}

// KPIFigures is the raw aggregate feeding the executive summary.
type KPIFigures struct {
	Revenue        decimal.Decimal
	COGS           decimal.Decimal
	OpenOrders     int
	OpenDeliveries int
	AROutstanding  decimal.Decimal
	APOutstanding  decimal.Decimal
}

// PGRepository implements Repository over the ERP replica schema.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// KPIFigures aggregates the executive summary in one round trip.
func (r *PGRepository) KPIFigures(ctx context.Context, from, to time.Time) (*KPIFigures, error) {
	const query = `SELECT
	COALESCE((SELECT SUM(l.sale_amount) FROM erp_sales_order_lines l
		JOIN erp_sales_orders o ON o.voucher_no = l.voucher_no
		WHERE o.voucher_date >= $1 AND o.voucher_date < $2), 0),
	COALESCE((SELECT SUM(l.cost_amount) FROM erp_sales_order_lines l
		JOIN erp_sales_orders o ON o.voucher_no = l.voucher_no
		WHERE o.voucher_date >= $1 AND o.voucher_date < $2), 0),
	(SELECT COUNT(*) FROM erp_sales_orders WHERE order_status = 0),
	(SELECT COUNT(*) FROM erp_delivery_notes WHERE delivered_at IS NULL),
	COALESCE((SELECT SUM(outstanding_amount) FROM erp_invoices WHERE outstanding_amount > 0), 0),
	COALESCE((SELECT SUM(outstanding_amount) FROM erp_supplier_invoices WHERE outstanding_amount > 0), 0)`

	var figures KPIFigures
	err := r.pool.QueryRow(ctx, query, from, to).Scan(
		&figures.Revenue, &figures.COGS, &figures.OpenOrders, &figures.OpenDeliveries,
		&figures.AROutstanding, &figures.APOutstanding)
	if err != nil {
		return nil, fmt.Errorf("reports: load kpi figures: %w", err)
	}
	return &figures, nil
}

// SalesSummary groups period sales by salesperson.
func (r *PGRepository) SalesSummary(ctx context.Context, from, to time.Time) ([]SalesSummaryRow, error) {
	const query = `SELECT COALESCE(o.salesperson, ''),
	COUNT(DISTINCT o.voucher_no),
	COALESCE(SUM(l.sale_amount), 0),
	COALESCE(SUM(l.cost_amount), 0)
FROM erp_sales_orders o
JOIN erp_sales_order_lines l ON l.voucher_no = o.voucher_no
WHERE o.voucher_date >= $1 AND o.voucher_date < $2
GROUP BY o.salesperson
ORDER BY SUM(l.sale_amount) DESC`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: load sales summary: %w", err)
	}
	defer rows.Close()

	var out []SalesSummaryRow
	for rows.Next() {
		var row SalesSummaryRow
		if err := rows.Scan(&row.Salesperson, &row.OrderCount, &row.TotalSale, &row.TotalCost); err != nil {
			return nil, err
		}
		row.Margin = row.TotalSale.Sub(row.TotalCost)
		out = append(out, row)
	}
	return out, rows.Err()
}

// OpenReceivables lists unpaid customer invoices as of the cutoff.
func (r *PGRepository) OpenReceivables(ctx context.Context, asOf time.Time) ([]OpenInvoice, error) {
	const query = `SELECT i.customer_code, COALESCE(c.name, ''), i.due_date, i.outstanding_amount
FROM erp_invoices i
JOIN erp_customers c ON c.code = i.customer_code
WHERE i.outstanding_amount > 0 AND i.invoice_date <= $1
ORDER BY i.customer_code, i.due_date`
	return r.queryOpenInvoices(ctx, query, asOf)
}

// OpenPayables lists unpaid supplier invoices as of the cutoff.
func (r *PGRepository) OpenPayables(ctx context.Context, asOf time.Time) ([]OpenInvoice, error) {
	const query = `SELECT i.supplier_code, COALESCE(s.name, ''), i.due_date, i.outstanding_amount
FROM erp_supplier_invoices i
JOIN erp_suppliers s ON s.code = i.supplier_code
WHERE i.outstanding_amount > 0 AND i.invoice_date <= $1
ORDER BY i.supplier_code, i.due_date`
	return r.queryOpenInvoices(ctx, query, asOf)
}

func (r *PGRepository) queryOpenInvoices(ctx context.Context, query string, asOf time.Time) ([]OpenInvoice, error) {
	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("reports: load open invoices: %w", err)
	}
	defer rows.Close()

	var out []OpenInvoice
	for rows.Next() {
		var inv OpenInvoice
		if err := rows.Scan(&inv.PartyCode, &inv.PartyName, &inv.DueDate, &inv.Outstanding); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// InventoryAging buckets remaining stock value by receipt age.
func (r *PGRepository) InventoryAging(ctx context.Context, asOf time.Time) ([]InventoryAgingRow, error) {
	const query = `SELECT s.item_code, COALESCE(i.name, ''),
	SUM(s.remaining_qty),
	SUM(s.remaining_qty * s.unit_cost),
	CASE
		WHEN $1::date - s.receipt_date <= 30 THEN '0-30'
		WHEN $1::date - s.receipt_date <= 90 THEN '31-90'
		WHEN $1::date - s.receipt_date <= 180 THEN '91-180'
		ELSE '180+'
	END AS age_bucket
FROM erp_stock_receipts s
JOIN erp_items i ON i.code = s.item_code
WHERE s.remaining_qty > 0
GROUP BY s.item_code, i.name, age_bucket
ORDER BY s.item_code, age_bucket`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("reports: load inventory aging: %w", err)
	}
	defer rows.Close()

	var out []InventoryAgingRow
	for rows.Next() {
		var row InventoryAgingRow
		if err := rows.Scan(&row.ItemCode, &row.ItemName, &row.Quantity, &row.Value, &row.AgeBucket); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeliveryOutcomes lists delivered vouchers of the period with their on-time
// and in-full flags.
func (r *PGRepository) DeliveryOutcomes(ctx context.Context, from, to time.Time) ([]DeliveryOutcome, error) {
	const query = `SELECT d.voucher_no,
	d.delivered_at::date <= d.promised_date,
	NOT EXISTS (
		SELECT 1 FROM erp_delivery_lines l
		WHERE l.voucher_no = d.voucher_no AND l.delivered_qty < l.ordered_qty
	)
FROM erp_delivery_notes d
WHERE d.delivered_at >= $1 AND d.delivered_at < $2`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: load delivery outcomes: %w", err)
	}
	defer rows.Close()

	var out []DeliveryOutcome
	for rows.Next() {
		var outcome DeliveryOutcome
		if err := rows.Scan(&outcome.VoucherNo, &outcome.OnTime, &outcome.InFull); err != nil {
			return nil, err
		}
		out = append(out, outcome)
	}
	return out, rows.Err()
}
