// Package lookup provides shared read-only ERP lookups used by the chatbot,
// approval and planner modules.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the lookup target does not exist.
var ErrNotFound = errors.New("lookup: not found")

// Customer is a master-data customer row.
type Customer struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Class string `json:"class"`
}

// OrderStatus summarises one sales order for status questions.
type OrderStatus struct {
	VoucherNo    string          `json:"voucher_no"`
	CustomerCode string          `json:"customer_code"`
	VoucherDate  time.Time       `json:"voucher_date"`
	Amount       decimal.Decimal `json:"amount"`
	Approved     bool            `json:"approved"`
}

// Service runs the lookups over the replica pool.
type Service struct {
	pool *pgxpool.Pool
}

// NewService builds a lookup Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// CustomerByCode fetches one customer.
func (s *Service) CustomerByCode(ctx context.Context, code string) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx,
		`SELECT code, name, COALESCE(class, '') FROM erp_customers WHERE code = $1`, code).
		Scan(&c.Code, &c.Name, &c.Class)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup: customer by code: %w", err)
	}
	return &c, nil
}

// SearchCustomers finds customers whose code or name contains the term.
// Chatbot disambiguation uses it to offer candidate matches.
func (s *Service) SearchCustomers(ctx context.Context, term string, limit int) ([]Customer, error) {
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	pattern := "%" + strings.TrimSpace(term) + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT code, name, COALESCE(class, '') FROM erp_customers
WHERE code ILIKE $1 OR name ILIKE $1
ORDER BY code LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("lookup: search customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.Code, &c.Name, &c.Class); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CustomerOutstanding sums unpaid invoice balances for a customer.
func (s *Service) CustomerOutstanding(ctx context.Context, customerCode string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(outstanding_amount), 0) FROM erp_invoices
WHERE customer_code = $1 AND outstanding_amount > 0`, customerCode).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lookup: customer outstanding: %w", err)
	}
	return total, nil
}

// OrderByVoucherNo fetches one sales order header.
func (s *Service) OrderByVoucherNo(ctx context.Context, voucherNo string) (*OrderStatus, error) {
	var o OrderStatus
	var status int
	err := s.pool.QueryRow(ctx,
		`SELECT voucher_no, customer_code, voucher_date, declared_amount, order_status
FROM erp_sales_orders WHERE voucher_no = $1`, voucherNo).
		Scan(&o.VoucherNo, &o.CustomerCode, &o.VoucherDate, &o.Amount, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup: order by voucher: %w", err)
	}
	o.Approved = status == 1
	return &o, nil
}

// NextDeliveryDay returns the planned day of the customer's next open
// delivery, or empty when nothing is planned.
func (s *Service) NextDeliveryDay(ctx context.Context, customerCode string) (string, error) {
	var day string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(planned_day, '') FROM erp_delivery_notes
WHERE customer_code = $1 AND delivered_at IS NULL
ORDER BY planned_day_tagged_at DESC NULLS LAST LIMIT 1`, customerCode).Scan(&day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup: next delivery day: %w", err)
	}
	return day, nil
}
