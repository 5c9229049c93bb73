package accounts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Handler wires HTTP endpoints for account and session flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessions: sessions}
}

// MountAuthRoutes registers the public sign-in routes.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountAccountRoutes registers routes for the signed-in account.
func (h *Handler) MountAccountRoutes(r chi.Router) {
	r.Get("/", h.handleGet)
	r.Patch("/", h.handleUpdate)
	r.Post("/password", h.handleChangePassword)
}

type accountView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionView struct {
	Account accountView `json:"account"`
	Token   string      `json:"token"`
}

func toView(a Account) accountView {
	return accountView{ID: a.ID, Name: a.Name, Email: a.Email, CreatedAt: a.CreatedAt}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.Signup(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.startSession(w, r, account, http.StatusCreated)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("email", req.Email))
		httpx.RespondError(w, err)
		return
	}
	h.startSession(w, r, account, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, account Account, status int) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	sess.SetAccount(account.ID)
	httpx.JSON(w, status, sessionView{Account: toView(account), Token: sess.ID})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(account))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ProfileUpdate
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(account))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := shared.AccountFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req PasswordChange
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), id, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
