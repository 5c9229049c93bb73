package analytichttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/udharbook/internal/analytics"
	"github.com/odyssey-erp/udharbook/internal/analytics/export"
	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

var periodRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)

const requestTimeout = 2 * time.Second

// AnalyticsService defines the reporting contract used by the handler.
type AnalyticsService interface {
	Location() *time.Location
	Report(ctx context.Context, accountID string, at time.Time) (analytics.Report, error)
	Dashboard(ctx context.Context, accountID string, now time.Time) (analytics.Dashboard, error)
	SalesSummary(ctx context.Context, accountID string, now time.Time) (analytics.SalesSummary, error)
	PaymentBreakdown(ctx context.Context, accountID string) ([]analytics.PaymentShare, error)
	SalesChart(ctx context.Context, accountID string, tf analytics.Timeframe, now time.Time) ([]analytics.ChartPoint, error)
	InventorySummary(ctx context.Context, accountID string) (analytics.InventorySummary, error)
	CreditAging(ctx context.Context, accountID string, now time.Time) ([]analytics.AgingBucket, error)
	Sales(ctx context.Context, accountID string) ([]sales.Sale, error)
}

// Handler serves the reports endpoints.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger, service: service, now: time.Now}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type overview struct {
	Report    analytics.Report           `json:"report"`
	Dashboard analytics.Dashboard        `json:"dashboard"`
	Inventory analytics.InventorySummary `json:"inventory"`
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	now := h.now()

	var out overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := h.service.Report(ctx, accountID, now)
		out.Report = report
		return err
	})
	g.Go(func() error {
		dash, err := h.service.Dashboard(ctx, accountID, now)
		out.Dashboard = dash
		return err
	})
	g.Go(func() error {
		inv, err := h.service.InventorySummary(ctx, accountID)
		out.Inventory = inv
		return err
	})
	if err := g.Wait(); err != nil {
		h.handleServerError(w, "load overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	at, err := h.parseMonth(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Report(r.Context(), accountID, at)
	if err != nil {
		h.handleServerError(w, "load report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dash, err := h.service.Dashboard(r.Context(), accountID, h.now())
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.SalesSummary(r.Context(), accountID, h.now())
	if err != nil {
		h.handleServerError(w, "load sales summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handlePaymentBreakdown(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	shares, err := h.service.PaymentBreakdown(r.Context(), accountID)
	if err != nil {
		h.handleServerError(w, "load payment breakdown", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shares)
}

func (h *Handler) handleSalesChart(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tf, err := analytics.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	points, err := h.service.SalesChart(r.Context(), accountID, tf, h.now())
	if err != nil {
		h.handleServerError(w, "load sales chart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.InventorySummary(r.Context(), accountID)
	if err != nil {
		h.handleServerError(w, "load inventory summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleCreditAging(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	buckets, err := h.service.CreditAging(r.Context(), accountID, h.now())
	if err != nil {
		h.handleServerError(w, "load credit aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, buckets)
}

func (h *Handler) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	at, err := h.parseMonth(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	report, err := h.service.Report(ctx, accountID, at)
	if err != nil {
		h.handleServerError(w, "load report", err)
		return
	}
	h.streamCSV(w, fmt.Sprintf("report-%s.csv", report.Month), func(buf *bytes.Buffer) error {
		return export.WriteReportCSV(buf, report)
	})
}

func (h *Handler) handleSalesCSV(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	list, err := h.service.Sales(ctx, accountID)
	if err != nil {
		h.handleServerError(w, "load sales", err)
		return
	}
	filename := fmt.Sprintf("sales-%s.csv", h.now().In(h.service.Location()).Format("2006-01-02"))
	h.streamCSV(w, filename, func(buf *bytes.Buffer) error {
		return export.WriteSalesCSV(buf, list, h.service.Location())
	})
}

func (h *Handler) streamCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

// parseMonth reads ?month=YYYY-MM, defaulting to the current month.
func (h *Handler) parseMonth(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return h.now(), nil
	}
	if !periodRegex.MatchString(raw) {
		return time.Time{}, shared.Invalid("month must be YYYY-MM")
	}
	at, err := time.ParseInLocation("2006-01", raw, h.service.Location())
	if err != nil {
		return time.Time{}, shared.Invalid("month must be YYYY-MM")
	}
	return at, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error("analytics handler error", slog.String("context", context), slog.Any("error", err))
}
