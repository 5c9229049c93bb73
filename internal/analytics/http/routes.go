package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleOverview)
	r.Get("/monthly", h.handleReport)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/sales-summary", h.handleSalesSummary)
	r.Get("/payment-breakdown", h.handlePaymentBreakdown)
	r.Get("/sales-chart", h.handleSalesChart)
	r.Get("/inventory", h.handleInventory)
	r.Get("/credit-aging", h.handleCreditAging)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export.csv", h.handleReportCSV)
		gr.Get("/sales.csv", h.handleSalesCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if accountID, err := shared.AccountFromContext(r.Context()); err == nil {
		return "account:" + accountID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
