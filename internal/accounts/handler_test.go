package accounts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "test:", time.Hour, false)

	svc, _, _ := newTestService(t)
	handler := NewHandler(slogDiscard(), svc, sessions)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			require.NoError(t, sessions.Commit(ctx, w, sess))
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	r.Route("/auth", handler.MountAuthRoutes)
	r.Route("/account", handler.MountAccountRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Shop", "email": "shop@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created sessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)
	require.NotContains(t, rr.Body.String(), "secretHash")

	rr = doJSON(t, router, http.MethodGet, "/account/", created.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "shop@example.com")

	rr = doJSON(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Other", "email": "shop@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/auth/logout", created.Token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/account/", created.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "shop@example.com", "password": "bad",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "shop@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rr.Code)
}
