package insights

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Handler exposes the analysis endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the insights handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers insights routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/analyze", h.handleAnalyze)
}

type analysisView struct {
	Analysis string `json:"analysis"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	text, err := h.service.Analyze(r.Context(), accountID)
	if err != nil {
		h.logger.Error("load ledger for analysis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, analysisView{Analysis: text})
}
