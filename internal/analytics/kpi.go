package analytics

import (
	"time"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/sales"
)

// MonthlyTurnoverAndProfit sums totalAmount and profit over sales that occurred
// in the given calendar month, read in loc.
func MonthlyTurnoverAndProfit(list []sales.Sale, month time.Month, year int, loc *time.Location) (turnover, profit float64) {
	if loc == nil {
		loc = time.UTC
	}
	for _, s := range list {
		y, m, _ := s.OccurredAt.In(loc).Date()
		if y != year || m != month {
			continue
		}
		turnover += s.TotalAmount
		profit += s.Profit
	}
	return turnover, profit
}

// SalesGrowthPercent compares two turnovers. With no previous turnover any
// current turnover counts as 100% growth and none as 0%.
func SalesGrowthPercent(current, previous float64) float64 {
	if previous > 0 {
		return (current - previous) / previous * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}

// AverageCollectionPeriodDays is the mean elapsed time, in fractional days,
// between issuing and collecting paid credit entries.
func AverageCollectionPeriodDays(entries []credit.Entry) float64 {
	var total float64
	var n int
	for _, e := range entries {
		if e.Status != credit.StatusPaid || e.PaidAt == nil {
			continue
		}
		total += e.PaidAt.Sub(e.IssuedAt).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// TotalStockValue values stock at selling price before tax.
func TotalStockValue(products []inventory.Product) float64 {
	var total float64
	for _, p := range products {
		total += float64(p.StockQty) * p.SellingPrice
	}
	return total
}

// TotalUnpaidPurchaseLiability sums unpaid purchases including tax.
func TotalUnpaidPurchaseLiability(purchases []inventory.Purchase) float64 {
	var total float64
	for _, p := range purchases {
		if p.PaymentStatus == inventory.PaymentUnpaid {
			total += p.TotalAmount
		}
	}
	return total
}
