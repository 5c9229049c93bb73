package sales

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/platform/httpx"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

func signedIn(accountID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &shared.Session{}
			sess.SetAccount(accountID)
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	}
}

func TestHandlerOversellReturnsConflictWithAvailable(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, inventory.CreateProductRequest{Name: "Ghee", SellingPrice: 500, CostPrice: 450, StockQty: 2})

	r := chi.NewRouter()
	r.Use(signedIn("acc-1"))
	r.Route("/sales", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.sales).MountRoutes)

	body, _ := json.Marshal(map[string]any{"productId": p.ID, "qty": 5, "paymentType": "Cash"})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sales/", bytes.NewReader(body)))

	require.Equal(t, http.StatusConflict, rr.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.EqualValues(t, 2, problem.Extensions["available"])

	body, _ = json.Marshal(map[string]any{"productId": p.ID, "qty": 2, "paymentType": "Online"})
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sales/", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Sale
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, PaymentOnline, list[0].PaymentType)
	require.Equal(t, 0, f.stock(t, p.ID))
}

func TestHandlerRequiresSession(t *testing.T) {
	f := newFixture(t, nil)
	r := chi.NewRouter()
	r.Route("/sales", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.sales).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
