package credit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler exposes credit ledger endpoints.
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

// MountRoutes registers credit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/outstanding", h.Outstanding)
	r.Get("/reminders", h.Reminders)
	r.Get("/{id}", h.Show)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/pay", h.Pay)
	r.Get("/{id}/reminder", h.ReminderText)
}

type createRequest struct {
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	DueDate    string  `json:"dueDate"`
	Note       string  `json:"note"`
	Photo      string  `json:"photo"`
}

type updateRequest struct {
	Status  *Status    `json:"status"`
	PaidAt  *time.Time `json:"paidAt"`
	Note    *string    `json:"note"`
	Photo   *string    `json:"photo"`
	DueDate *string    `json:"dueDate"`
}

type outstandingResponse struct {
	CustomerID  string  `json:"customerId,omitempty"`
	Outstanding float64 `json:"outstanding"`
}

type reminderTextResponse struct {
	Tone         Tone   `json:"tone"`
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsappLink"`
}

// parseDate reads a calendar date as midnight in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, shared.Invalid("dueDate must be YYYY-MM-DD")
	}
	return t, nil
}

// Create records a new credit entry.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	due, err := parseDate(req.DueDate, h.service.Location())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.AddEntry(r.Context(), accountID, CreateEntryRequest{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		DueDate:    due,
		Note:       req.Note,
		Photo:      req.Photo,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

// List returns entries, optionally narrowed to one customer.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var entries []Entry
	if customerID := r.URL.Query().Get("customerId"); customerID != "" {
		entries, err = h.service.ListForCustomer(r.Context(), accountID, customerID)
	} else {
		entries, err = h.service.ListEntries(r.Context(), accountID)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// Show returns one entry.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.GetEntry(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

// Update patches an entry.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	update := EntryUpdate{Status: req.Status, PaidAt: req.PaidAt, Note: req.Note, Photo: req.Photo}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate, h.service.Location())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		update.DueDate = &due
	}
	entry, err := h.service.UpdateEntry(r.Context(), accountID, chi.URLParam(r, "id"), update)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

// Pay marks an entry paid.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.MarkPaid(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

// Outstanding returns the unpaid total for a customer, or for the whole
// account when no customer is given.
func (h *Handler) Outstanding(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	customerID := r.URL.Query().Get("customerId")
	var total float64
	if customerID != "" {
		total, err = h.service.OutstandingBalance(r.Context(), accountID, customerID)
	} else {
		total, err = h.service.TotalOutstanding(r.Context(), accountID)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, outstandingResponse{CustomerID: customerID, Outstanding: total})
}

// Reminders lists pending reminders.
func (h *Handler) Reminders(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	within := h.service.ReminderWindow()
	if raw := r.URL.Query().Get("within"); raw != "" {
		within, err = strconv.Atoi(raw)
		if err != nil || within < 0 {
			httpx.RespondError(w, shared.Invalid("within must be a non-negative integer"))
			return
		}
	}
	reminders, err := h.service.PendingReminders(r.Context(), accountID, within)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reminders)
}

// ReminderText returns the reminder message and its WhatsApp link.
func (h *Handler) ReminderText(w http.ResponseWriter, r *http.Request) {
	accountID, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tone, err := ParseTone(r.URL.Query().Get("tone"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	msg, customer, err := h.service.ReminderMessage(r.Context(), accountID, chi.URLParam(r, "id"), tone)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reminderTextResponse{
		Tone:         tone,
		Message:      msg,
		WhatsAppLink: WhatsAppLink(customer.Phone, msg),
	})
}
