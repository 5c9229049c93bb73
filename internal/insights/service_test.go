package insights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

type stubLedger struct {
	sales   []sales.Sale
	entries []credit.Entry
}

func (s stubLedger) ListSales(context.Context, string) ([]sales.Sale, error) { return s.sales, nil }

func (s stubLedger) ListEntries(context.Context, string) ([]credit.Entry, error) {
	return s.entries, nil
}

type stubCompleter struct {
	reply string
	err   error
	got   openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.got = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.reply}},
	}}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLedger() stubLedger {
	return stubLedger{
		sales: []sales.Sale{{ItemName: "Rice", Qty: 2, TotalAmount: 1250.5, Profit: 100, PaymentType: sales.PaymentUPI,
			OccurredAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)}},
		entries: []credit.Entry{{Amount: 500, Status: credit.StatusUnpaid, DueDate: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)}},
	}
}

func TestAnalyzeReturnsModelText(t *testing.T) {
	completer := &stubCompleter{reply: "  **Overall Summary:** good  "}
	gen := newGenerator(completer, "", time.UTC, discard())
	ledger := testLedger()
	svc := NewService(ledger, ledger, gen, discard())

	text, err := svc.Analyze(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Equal(t, "**Overall Summary:** good", text)
	require.Equal(t, openai.GPT4oMini, completer.got.Model)
	require.Len(t, completer.got.Messages, 2)
	prompt := completer.got.Messages[1].Content
	require.Contains(t, prompt, "Rice (2 units) for ₹1,250.50")
	require.Contains(t, prompt, "via UPI on 01/04/2024")
	require.Contains(t, prompt, "status: unpaid, due on 10/04/2024")
}

func TestAnalyzeFallbackMessages(t *testing.T) {
	ledger := testLedger()

	unconfigured := NewService(ledger, ledger, NewOpenAIGenerator("", "", nil, discard()), discard())
	text, err := unconfigured.Analyze(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Equal(t, MessageNotConfigured, text)

	failing := NewService(ledger, ledger, newGenerator(&stubCompleter{err: errors.New("timeout")}, "", nil, discard()), discard())
	text, err = failing.Analyze(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Equal(t, MessageUnavailable, text)

	empty := NewService(ledger, ledger, newGenerator(&stubCompleter{reply: ""}, "", nil, discard()), discard())
	text, err = empty.Analyze(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Equal(t, MessageUnavailable, text)
}

func TestBuildPromptWithoutData(t *testing.T) {
	prompt := BuildPrompt(nil, nil, time.UTC)
	require.Contains(t, prompt, "No sales data available.")
	require.Contains(t, prompt, "No credit data available.")
}

func TestHandlerAnalyze(t *testing.T) {
	ledger := testLedger()
	svc := NewService(ledger, ledger, newGenerator(&stubCompleter{reply: "ok"}, "", nil, discard()), discard())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{}
			sess.SetAccount("acc-1")
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/insights", NewHandler(discard(), svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/insights/analyze", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"analysis":"ok"}`, rr.Body.String())
}
