package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Service serves cached report payloads.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// periodBounds resolves a YYYY-MM period into its half-open date range.
func periodBounds(period string, now time.Time) (string, time.Time, time.Time, error) {
	if period == "" {
		period = now.Format("2006-01")
	}
	from, err := time.Parse("2006-01", period)
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("reports: invalid period %q: %w", period, err)
	}
	return period, from, from.AddDate(0, 1, 0), nil
}

// KPI returns the executive summary for a period.
func (s *Service) KPI(ctx context.Context, period string) (*KPISummary, error) {
	period, from, to, err := periodBounds(period, s.now())
	if err != nil {
		return nil, err
	}

	key, err := s.cache.BuildKey(ctx, keyKPI(period)...)
	if err != nil {
		return nil, err
	}
	var summary KPISummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		figures, err := s.repo.KPIFigures(ctx, from, to)
		if err != nil {
			return nil, err
		}
		outcomes, err := s.repo.DeliveryOutcomes(ctx, from, to)
		if err != nil {
			return nil, err
		}
		otif := ComputeOTIF(outcomes, period)
		return KPISummary{
			Period:         period,
			Revenue:        figures.Revenue,
			COGS:           figures.COGS,
			GrossMargin:    figures.Revenue.Sub(figures.COGS),
			OpenOrders:     figures.OpenOrders,
			OpenDeliveries: figures.OpenDeliveries,
			AROutstanding:  figures.AROutstanding,
			APOutstanding:  figures.APOutstanding,
			OTIF:           otif.Rate,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// SalesSummary returns per-salesperson totals for a period.
func (s *Service) SalesSummary(ctx context.Context, period string) ([]SalesSummaryRow, error) {
	period, from, to, err := periodBounds(period, s.now())
	if err != nil {
		return nil, err
	}

	key, err := s.cache.BuildKey(ctx, keySales(period)...)
	if err != nil {
		return nil, err
	}
	var rows []SalesSummaryRow
	err = s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
		return s.repo.SalesSummary(ctx, from, to)
	})
	return rows, err
}

// ARAging returns the receivable aging buckets as of a date.
func (s *Service) ARAging(ctx context.Context, asOf time.Time) ([]AgingRow, error) {
	return s.aging(ctx, asOf, "aging_ar", s.repo.OpenReceivables)
}

// APAging returns the payable aging buckets as of a date.
func (s *Service) APAging(ctx context.Context, asOf time.Time) ([]AgingRow, error) {
	return s.aging(ctx, asOf, "aging_ap", s.repo.OpenPayables)
}

func (s *Service) aging(ctx context.Context, asOf time.Time, prefix string,
	load func(context.Context, time.Time) ([]OpenInvoice, error)) ([]AgingRow, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC().Truncate(24 * time.Hour)
	}
	key, err := s.cache.BuildKey(ctx, keyAging(prefix, asOf)...)
	if err != nil {
		return nil, err
	}
	var rows []AgingRow
	err = s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
		invoices, err := load(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildAgingRows(invoices, asOf), nil
	})
	return rows, err
}

// InventoryAging returns remaining stock bucketed by receipt age.
func (s *Service) InventoryAging(ctx context.Context, asOf time.Time) ([]InventoryAgingRow, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC().Truncate(24 * time.Hour)
	}
	key, err := s.cache.BuildKey(ctx, keyInventory(asOf)...)
	if err != nil {
		return nil, err
	}
	var rows []InventoryAgingRow
	err = s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
		return s.repo.InventoryAging(ctx, asOf)
	})
	return rows, err
}

// OTIF returns the delivery performance rate for a period.
func (s *Service) OTIF(ctx context.Context, period string) (*OTIFResult, error) {
	period, from, to, err := periodBounds(period, s.now())
	if err != nil {
		return nil, err
	}

	key, err := s.cache.BuildKey(ctx, keyOTIF(period)...)
	if err != nil {
		return nil, err
	}
	var result OTIFResult
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		outcomes, err := s.repo.DeliveryOutcomes(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return ComputeOTIF(outcomes, period), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh drops every cached report by bumping the cache version.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("reports: bump cache: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("report cache refreshed")
	}
	return nil
}

// Warmup precomputes the current period's dashboard payloads. The background
// worker calls it after each version bump and on a schedule.
func (s *Service) Warmup(ctx context.Context) error {
	period := s.now().Format("2006-01")
	if _, err := s.KPI(ctx, period); err != nil {
		return err
	}
	if _, err := s.SalesSummary(ctx, period); err != nil {
		return err
	}
	asOf := s.now().UTC().Truncate(24 * time.Hour)
	if _, err := s.ARAging(ctx, asOf); err != nil {
		return err
	}
	_, err := s.APAging(ctx, asOf)
	return err
}

// TotalOutstanding sums a set of aging rows. The chatbot uses it for balance
// questions.
func TotalOutstanding(rows []AgingRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Outstanding)
	}
	return total
}
