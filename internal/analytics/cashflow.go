package analytics

import (
	"time"

	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// SalesSummary holds the sales book headline totals.
type SalesSummary struct {
	Today     float64 `json:"today"`
	Yesterday float64 `json:"yesterday"`
	ThisMonth float64 `json:"thisMonth"`
}

// PaymentShare is the sales total collected through one payment type.
type PaymentShare struct {
	PaymentType sales.PaymentType `json:"paymentType"`
	Total       float64           `json:"total"`
}

// SummariseSales totals sales for today, yesterday and the current month
// relative to now in loc.
func SummariseSales(list []sales.Sale, now time.Time, loc *time.Location) SalesSummary {
	todayStart, todayEnd := shared.DayRange(now, loc)
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	monthStart, monthEnd := shared.MonthRange(now, loc)

	var out SalesSummary
	for _, s := range list {
		at := s.OccurredAt
		if within(at, todayStart, todayEnd) {
			out.Today += s.TotalAmount
		}
		if within(at, yesterdayStart, todayStart) {
			out.Yesterday += s.TotalAmount
		}
		if within(at, monthStart, monthEnd) {
			out.ThisMonth += s.TotalAmount
		}
	}
	return out
}

// BreakdownByPaymentType totals sales per payment type. Types without sales
// are omitted; unknown types are appended after the known ones.
func BreakdownByPaymentType(list []sales.Sale) []PaymentShare {
	totals := make(map[sales.PaymentType]float64)
	var extra []sales.PaymentType
	for _, s := range list {
		if _, seen := totals[s.PaymentType]; !seen && !known(s.PaymentType) {
			extra = append(extra, s.PaymentType)
		}
		totals[s.PaymentType] += s.TotalAmount
	}
	out := make([]PaymentShare, 0, len(totals))
	for _, pt := range append(append([]sales.PaymentType{}, sales.PaymentTypes...), extra...) {
		if total, ok := totals[pt]; ok {
			out = append(out, PaymentShare{PaymentType: pt, Total: total})
		}
	}
	return out
}

func known(pt sales.PaymentType) bool {
	for _, k := range sales.PaymentTypes {
		if k == pt {
			return true
		}
	}
	return false
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
