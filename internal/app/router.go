package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	analytichttp "github.com/odyssey-erp/udharbook/internal/analytics/http"
	"github.com/odyssey-erp/udharbook/internal/backup"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/insights"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/observability"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
	"github.com/odyssey-erp/udharbook/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	AccountsHandler  *accounts.Handler
	CustomersHandler *customers.Handler
	CreditHandler    *credit.Handler
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	AnalyticsHandler *analytichttp.Handler
	InsightsHandler  *insights.Handler
	BackupHandler    *backup.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router for the ledger API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AccountsHandler != nil {
		r.Route("/auth", params.AccountsHandler.MountAuthRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireAccount)
		if params.AccountsHandler != nil {
			r.Route("/account", params.AccountsHandler.MountAccountRoutes)
		}
		if params.CustomersHandler != nil {
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		}
		if params.CreditHandler != nil {
			r.Route("/credits", params.CreditHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			r.Route("/products", params.InventoryHandler.MountProductRoutes)
			r.Route("/purchases", params.InventoryHandler.MountPurchaseRoutes)
		}
		if params.SalesHandler != nil {
			r.Route("/sales", params.SalesHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			r.Route("/reports", params.AnalyticsHandler.MountRoutes)
		}
		if params.InsightsHandler != nil {
			r.Route("/insights", params.InsightsHandler.MountRoutes)
		}
		if params.BackupHandler != nil {
			r.Route("/backup", params.BackupHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
