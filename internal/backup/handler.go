package backup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Handler serves backup downloads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs backup handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers backup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleDownload)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var opts Options
	if raw := r.URL.Query().Get("includeInventory"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("includeInventory must be a boolean"))
			return
		}
		opts.IncludeInventory = include
	}
	doc, err := h.service.Export(r.Context(), accountID, opts)
	if err != nil {
		h.logger.Error("export backup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", h.service.Filename()))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		h.logger.Error("stream backup", slog.Any("error", err))
	}
}
