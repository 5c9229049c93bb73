package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/sales"
)

// ErrNotConfigured is returned by a generator without API credentials.
var ErrNotConfigured = errors.New("insights: generator not configured")

const (
	defaultModel   = openai.GPT4oMini
	requestTimeout = 60 * time.Second
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator produces markdown analysis through the chat completions API.
type OpenAIGenerator struct {
	client   chatCompleter
	model    string
	location *time.Location
	logger   *slog.Logger
}

// NewOpenAIGenerator builds a generator. An empty apiKey yields a generator
// that always reports ErrNotConfigured.
func NewOpenAIGenerator(apiKey, model string, loc *time.Location, logger *slog.Logger) *OpenAIGenerator {
	var client chatCompleter
	if strings.TrimSpace(apiKey) != "" {
		client = openai.NewClient(apiKey)
	}
	return newGenerator(client, model, loc, logger)
}

func newGenerator(client chatCompleter, model string, loc *time.Location, logger *slog.Logger) *OpenAIGenerator {
	if model == "" {
		model = defaultModel
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIGenerator{client: client, model: model, location: loc, logger: logger}
}

// Analyze asks the model for a business analysis of the sales and credit data.
func (g *OpenAIGenerator) Analyze(ctx context.Context, list []sales.Sale, entries []credit.Entry) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := BuildPrompt(list, entries, g.location)
	g.logger.Debug("requesting business analysis",
		slog.String("model", g.model),
		slog.Int("sales", len(list)),
		slog.Int("credits", len(entries)))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("insights: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("insights: no response choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("insights: empty analysis")
	}
	return text, nil
}
