package customers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Handler exposes customer endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
}

// List returns the signed-in account's customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListCustomers(r.Context(), accountID)
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Create adds a customer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.service.AddCustomer(r.Context(), accountID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

// Show returns one customer.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}
