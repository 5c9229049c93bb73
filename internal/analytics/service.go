// Package analytics derives turnover, profit, growth and collection metrics
// from the ledger collections of one account.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// SalesSource lists an account's sales.
type SalesSource interface {
	ListSales(ctx context.Context, accountID string) ([]sales.Sale, error)
}

// CreditSource lists an account's credit entries and due reminders.
type CreditSource interface {
	ListEntries(ctx context.Context, accountID string) ([]credit.Entry, error)
	PendingReminders(ctx context.Context, accountID string, withinDays int) ([]credit.Reminder, error)
}

// InventorySource lists an account's products and purchases.
type InventorySource interface {
	ListProducts(ctx context.Context, accountID string, filter inventory.StockFilter) ([]inventory.Product, error)
	ListPurchases(ctx context.Context, accountID string) ([]inventory.Purchase, error)
}

// Sources groups the ledger readers analytics depends on.
type Sources struct {
	Sales     SalesSource
	Credit    CreditSource
	Inventory InventorySource
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Location *time.Location
	Clock    func() time.Time
}

// Service coordinates analytics computation with the cache layer.
type Service struct {
	src    Sources
	cache  *Cache
	logger *slog.Logger
	loc    *time.Location
	clock  func() time.Time
	group  singleflight.Group
}

// NewService wires ledger sources with a Cache helper. A nil cache computes
// every report on demand.
func NewService(src Sources, cache *Cache, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, cache: cache, logger: logger, loc: cfg.Location, clock: cfg.Clock}
}

// Location is the calendar used for month and day boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock()
}

// Report is the monthly financial summary.
type Report struct {
	Month             string    `json:"month"`
	Turnover          float64   `json:"turnover"`
	Profit            float64   `json:"profit"`
	PreviousTurnover  float64   `json:"previousTurnover"`
	GrowthPercent     float64   `json:"growthPercent"`
	AvgCollectionDays float64   `json:"avgCollectionPeriodDays"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Dashboard backs the home screen.
type Dashboard struct {
	TotalOutstanding float64 `json:"totalOutstanding"`
	TodaySales       float64 `json:"todaySales"`
	PendingReminders int     `json:"pendingReminders"`
}

// InventorySummary values stock and what is still owed to suppliers.
type InventorySummary struct {
	ProductCount        int     `json:"productCount"`
	OutOfStockCount     int     `json:"outOfStockCount"`
	StockValue          float64 `json:"totalStockValue"`
	UnpaidPurchaseTotal float64 `json:"unpaidPurchaseLiability"`
}

// Report computes the summary for the month containing at, compared with the
// month before. Results are cached per account version and concurrent
// requests for the same month share one computation.
func (s *Service) Report(ctx context.Context, accountID string, at time.Time) (Report, error) {
	month := at.In(s.loc).Format("2006-01")
	key, err := s.cache.BuildKey(ctx, accountID, "report", month)
	if err != nil {
		return Report{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var report Report
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
			return s.buildReport(ctx, accountID, at)
		})
		return report, err
	})
	if err != nil {
		return Report{}, fmt.Errorf("analytics: report %s: %w", month, err)
	}
	return v.(Report), nil
}

func (s *Service) buildReport(ctx context.Context, accountID string, at time.Time) (Report, error) {
	list, err := s.src.Sales.ListSales(ctx, accountID)
	if err != nil {
		return Report{}, err
	}
	entries, err := s.src.Credit.ListEntries(ctx, accountID)
	if err != nil {
		return Report{}, err
	}
	local := at.In(s.loc)
	prev := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc).AddDate(0, -1, 0)

	turnover, profit := MonthlyTurnoverAndProfit(list, local.Month(), local.Year(), s.loc)
	previous, _ := MonthlyTurnoverAndProfit(list, prev.Month(), prev.Year(), s.loc)
	return Report{
		Month:             local.Format("2006-01"),
		Turnover:          turnover,
		Profit:            profit,
		PreviousTurnover:  previous,
		GrowthPercent:     SalesGrowthPercent(turnover, previous),
		AvgCollectionDays: AverageCollectionPeriodDays(entries),
		GeneratedAt:       s.clock().UTC(),
	}, nil
}

// Dashboard returns the home screen totals as of now.
func (s *Service) Dashboard(ctx context.Context, accountID string, now time.Time) (Dashboard, error) {
	entries, err := s.src.Credit.ListEntries(ctx, accountID)
	if err != nil {
		return Dashboard{}, err
	}
	list, err := s.src.Sales.ListSales(ctx, accountID)
	if err != nil {
		return Dashboard{}, err
	}
	reminders, err := s.src.Credit.PendingReminders(ctx, accountID, -1)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		TotalOutstanding: credit.SumOutstanding(entries),
		TodaySales:       SummariseSales(list, now, s.loc).Today,
		PendingReminders: len(reminders),
	}, nil
}

// SalesSummary returns today, yesterday and month-to-date sale totals.
func (s *Service) SalesSummary(ctx context.Context, accountID string, now time.Time) (SalesSummary, error) {
	list, err := s.src.Sales.ListSales(ctx, accountID)
	if err != nil {
		return SalesSummary{}, err
	}
	return SummariseSales(list, now, s.loc), nil
}

// PaymentBreakdown totals all sales by payment type.
func (s *Service) PaymentBreakdown(ctx context.Context, accountID string) ([]PaymentShare, error) {
	list, err := s.src.Sales.ListSales(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return BreakdownByPaymentType(list), nil
}

// SalesChart buckets sale totals for the timeframe ending at now.
func (s *Service) SalesChart(ctx context.Context, accountID string, tf Timeframe, now time.Time) ([]ChartPoint, error) {
	list, err := s.src.Sales.ListSales(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return SalesChart(list, tf, now, s.loc), nil
}

// InventorySummary values current stock and unpaid purchases.
func (s *Service) InventorySummary(ctx context.Context, accountID string) (InventorySummary, error) {
	products, err := s.src.Inventory.ListProducts(ctx, accountID, inventory.FilterAll)
	if err != nil {
		return InventorySummary{}, err
	}
	purchases, err := s.src.Inventory.ListPurchases(ctx, accountID)
	if err != nil {
		return InventorySummary{}, err
	}
	out := InventorySummary{
		ProductCount:        len(products),
		StockValue:          TotalStockValue(products),
		UnpaidPurchaseTotal: TotalUnpaidPurchaseLiability(purchases),
	}
	for _, p := range products {
		if p.StockQty <= 0 {
			out.OutOfStockCount++
		}
	}
	return out, nil
}

// CreditAging groups unpaid credit by days past due as of now.
func (s *Service) CreditAging(ctx context.Context, accountID string, now time.Time) ([]AgingBucket, error) {
	entries, err := s.src.Credit.ListEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return CreditAging(entries, shared.Date(now, s.loc)), nil
}

// Sales returns the account's sales book for export.
func (s *Service) Sales(ctx context.Context, accountID string) ([]sales.Sale, error) {
	return s.src.Sales.ListSales(ctx, accountID)
}

// Warm precomputes the current month's report into the cache.
func (s *Service) Warm(ctx context.Context, accountID string) error {
	_, err := s.Report(ctx, accountID, s.clock())
	return err
}
