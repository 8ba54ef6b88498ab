package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/platform/db"
	"github.com/meridian-erp/meridian/internal/shared"
)

// ErrNotFound indicates the voucher does not exist in the ERP tables.
var ErrNotFound = errors.New("approval: voucher not found")

// Repository exposes voucher facts and the approval write path.
type Repository interface {
	VoucherFacts(ctx context.Context, kind VoucherKind, voucherNo string) (*VoucherFacts, error)
	ApproverCodes(ctx context.Context, voucherType string) ([]string, error)
	RecordApproval(ctx context.Context, entry LogEntry) error
	History(ctx context.Context, voucherNo string) ([]LogEntry, error)
}

// PGRepository implements Repository over the ERP replica schema.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func voucherTables(kind VoucherKind) (header, lines string, err error) {
	switch kind {
	case KindQuotation:
		return "erp_quotations", "erp_quotation_lines", nil
	case KindSalesOrder:
		return "erp_sales_orders", "erp_sales_order_lines", nil
	default:
		return "", "", fmt.Errorf("approval: unknown voucher kind %q", kind)
	}
}

// VoucherFacts aggregates line totals and header attributes for evaluation.
func (r *PGRepository) VoucherFacts(ctx context.Context, kind VoucherKind, voucherNo string) (*VoucherFacts, error) {
	header, lines, err := voucherTables(kind)
	if err != nil {
		return nil, err
	}

	// Tables are chosen from a fixed map above, never from request input.
	query := fmt.Sprintf(`SELECT
	h.voucher_no, h.voucher_type, h.voucher_date, h.customer_code,
	COALESCE(c.class, ''), COALESCE(h.salesperson, ''), h.declared_amount, h.order_status,
	COALESCE(SUM(l.sale_amount), 0), COALESCE(SUM(l.cost_amount), 0),
	COUNT(l.id), COUNT(l.line_date), COUNT(l.quotation_no)
FROM %s h
JOIN erp_customers c ON c.code = h.customer_code
LEFT JOIN %s l ON l.voucher_no = h.voucher_no
WHERE h.voucher_no = $1
GROUP BY h.voucher_no, h.voucher_type, h.voucher_date, h.customer_code, c.class, h.salesperson, h.declared_amount, h.order_status`,
		header, lines)

	facts := VoucherFacts{Kind: kind}
	var sale, cost, declared decimal.Decimal
	err = r.pool.QueryRow(ctx, query, voucherNo).Scan(
		&facts.VoucherNo, &facts.VoucherType, &facts.VoucherDate, &facts.CustomerCode,
		&facts.CustomerClass, &facts.Salesperson, &declared, &facts.OrderStatus,
		&sale, &cost, &facts.LineCount, &facts.DatedLineCount, &facts.QuotationLinked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("approval: load voucher facts: %w", err)
	}
	facts.DeclaredAmount = declared
	facts.TotalSale = sale
	facts.TotalCost = cost
	return &facts, nil
}

// ApproverCodes returns the ordered approver user codes mapped to a voucher type.
func (r *PGRepository) ApproverCodes(ctx context.Context, voucherType string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT approver_code FROM approver_mappings
WHERE voucher_type = $1 ORDER BY tier ASC, approver_code ASC`, voucherType)
	if err != nil {
		return nil, fmt.Errorf("approval: load approver mapping: %w", err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// RecordApproval flips the ERP status and writes the immutable log row inside
// one transaction. The status flip is guarded by the expected prior status so
// a repeated approval is a no-op conflict rather than a double write.
func (r *PGRepository) RecordApproval(ctx context.Context, entry LogEntry) error {
	header, _, err := voucherTables(entry.Kind)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET order_status = 1 WHERE voucher_no = $1 AND order_status = 0`, header),
			entry.VoucherNo)
		if err != nil {
			return fmt.Errorf("approval: flip status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrStateConflict
		}
		_, err = tx.Exec(ctx, `INSERT INTO approval_logs (voucher_no, kind, ratio, amount, approver, note, approved_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			entry.VoucherNo, string(entry.Kind), entry.Ratio, entry.Amount, entry.Approver, entry.Note)
		if err != nil {
			return fmt.Errorf("approval: insert log: %w", err)
		}
		return nil
	})
}

// History lists approval log rows for a voucher, oldest first.
func (r *PGRepository) History(ctx context.Context, voucherNo string) ([]LogEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, voucher_no, kind, ratio, amount, approver, note, approved_at
FROM approval_logs WHERE voucher_no = $1 ORDER BY approved_at ASC`, voucherNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.VoucherNo, &kind, &e.Ratio, &e.Amount, &e.Approver, &e.Note, &e.ApprovedAt); err != nil {
			return nil, err
		}
		e.Kind = VoucherKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
