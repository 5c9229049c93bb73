package analytichttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/analytics"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

type stubService struct {
	lastAt time.Time
	report analytics.Report
	list   []sales.Sale
}

func (s *stubService) Location() *time.Location { return time.UTC }

func (s *stubService) Report(ctx context.Context, accountID string, at time.Time) (analytics.Report, error) {
	s.lastAt = at
	r := s.report
	r.Month = at.Format("2006-01")
	return r, nil
}

func (s *stubService) Dashboard(ctx context.Context, accountID string, now time.Time) (analytics.Dashboard, error) {
	return analytics.Dashboard{TotalOutstanding: 150, PendingReminders: 2}, nil
}

func (s *stubService) SalesSummary(ctx context.Context, accountID string, now time.Time) (analytics.SalesSummary, error) {
	return analytics.SalesSummary{Today: 10}, nil
}

func (s *stubService) PaymentBreakdown(ctx context.Context, accountID string) ([]analytics.PaymentShare, error) {
	return nil, nil
}

func (s *stubService) SalesChart(ctx context.Context, accountID string, tf analytics.Timeframe, now time.Time) ([]analytics.ChartPoint, error) {
	return []analytics.ChartPoint{{Label: string(tf)}}, nil
}

func (s *stubService) InventorySummary(ctx context.Context, accountID string) (analytics.InventorySummary, error) {
	return analytics.InventorySummary{StockValue: 42}, nil
}

func (s *stubService) CreditAging(ctx context.Context, accountID string, now time.Time) ([]analytics.AgingBucket, error) {
	return nil, nil
}

func (s *stubService) Sales(ctx context.Context, accountID string) ([]sales.Sale, error) {
	return s.list, nil
}

func newRouter(svc *stubService, accountID string) http.Handler {
	h := NewHandler(nil, svc)
	h.WithNow(func() time.Time { return time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if accountID != "" {
				sess := &shared.Session{}
				sess.SetAccount(accountID)
				req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/reports", h.MountRoutes)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestOverviewCombinesReports(t *testing.T) {
	svc := &stubService{report: analytics.Report{Turnover: 500}}
	rr := get(newRouter(svc, "acc-1"), "/reports/")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Report    analytics.Report           `json:"report"`
		Dashboard analytics.Dashboard        `json:"dashboard"`
		Inventory analytics.InventorySummary `json:"inventory"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "2024-04", body.Report.Month)
	require.Equal(t, 150.0, body.Dashboard.TotalOutstanding)
	require.Equal(t, 42.0, body.Inventory.StockValue)
}

func TestMonthlyReportParsesMonth(t *testing.T) {
	svc := &stubService{}
	router := newRouter(svc, "acc-1")

	rr := get(router, "/reports/monthly?month=2024-02")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, time.February, svc.lastAt.Month())

	rr = get(router, "/reports/monthly?month=Feb-2024")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSalesChartRejectsUnknownTimeframe(t *testing.T) {
	router := newRouter(&stubService{}, "acc-1")
	require.Equal(t, http.StatusBadRequest, get(router, "/reports/sales-chart?timeframe=hourly").Code)

	rr := get(router, "/reports/sales-chart?timeframe=weekly")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "weekly")
}

func TestSalesCSVDownload(t *testing.T) {
	svc := &stubService{list: []sales.Sale{{ItemName: "Soap", Qty: 1, TotalAmount: 30, PaymentType: sales.PaymentCash}}}
	rr := get(newRouter(svc, "acc-1"), "/reports/sales.csv")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "sales-2024-04-15.csv")

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Soap", records[1][1])
}

func TestReportsRequireSignedInAccount(t *testing.T) {
	rr := get(newRouter(&stubService{}, ""), "/reports/dashboard")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
