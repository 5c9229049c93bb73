// Package export renders analytics and the sales book as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/odyssey-erp/udharbook/internal/analytics"
	"github.com/odyssey-erp/udharbook/internal/sales"
)

// WriteReportCSV serialises the monthly report to a Metric/Value CSV.
func WriteReportCSV(w io.Writer, report analytics.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Month", report.Month},
		{"Turnover", formatFloat(report.Turnover)},
		{"Profit", formatFloat(report.Profit)},
		{"Previous Turnover", formatFloat(report.PreviousTurnover)},
		{"Sales Growth %", formatFloat(report.GrowthPercent)},
		{"Avg Collection Period (days)", strconv.FormatFloat(report.AvgCollectionDays, 'f', 1, 64)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV emits the sales book, one row per sale, with dates in loc.
func WriteSalesCSV(w io.Writer, list []sales.Sale, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()
	header := []string{"Date", "Item", "Qty", "Subtotal", "GST %", "GST", "Total", "Cost of Goods", "Profit", "Payment", "Notes"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, s := range list {
		if err := writer.Write([]string{
			s.OccurredAt.In(loc).Format("2006-01-02 15:04"),
			s.ItemName,
			strconv.Itoa(s.Qty),
			formatFloat(s.Subtotal),
			formatFloat(s.GSTRate),
			formatFloat(s.GSTAmount),
			formatFloat(s.TotalAmount),
			formatFloat(s.CostOfGoodsSold),
			formatFloat(s.Profit),
			string(s.PaymentType),
			s.Notes,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
