// Package insights produces a free-text business analysis of an account's
// sales and credit through an external language model.
package insights

import (
	"context"
	"errors"
	"log/slog"

	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/sales"
)

// Fixed replies shown instead of an analysis.
const (
	MessageNotConfigured = "API Key is not configured. Please set up your environment variables."
	MessageUnavailable   = "Sorry, I couldn't analyze the data. There was an error connecting to the AI service."
)

// Analyzer turns sales and credit lists into markdown text.
type Analyzer interface {
	Analyze(ctx context.Context, list []sales.Sale, entries []credit.Entry) (string, error)
}

// SalesSource lists an account's sales.
type SalesSource interface {
	ListSales(ctx context.Context, accountID string) ([]sales.Sale, error)
}

// CreditSource lists an account's credit entries.
type CreditSource interface {
	ListEntries(ctx context.Context, accountID string) ([]credit.Entry, error)
}

// Service coordinates loading the ledger and calling the analyzer.
type Service struct {
	sales    SalesSource
	credit   CreditSource
	analyzer Analyzer
	logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(salesSrc SalesSource, creditSrc CreditSource, analyzer Analyzer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sales: salesSrc, credit: creditSrc, analyzer: analyzer, logger: logger}
}

// Analyze returns the analysis for the account. Analyzer failures never
// surface as errors: the caller receives one of the fixed messages instead.
// Only failures to read the ledger are returned.
func (s *Service) Analyze(ctx context.Context, accountID string) (string, error) {
	list, err := s.sales.ListSales(ctx, accountID)
	if err != nil {
		return "", err
	}
	entries, err := s.credit.ListEntries(ctx, accountID)
	if err != nil {
		return "", err
	}
	if s.analyzer == nil {
		return MessageNotConfigured, nil
	}
	text, err := s.analyzer.Analyze(ctx, list, entries)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return MessageNotConfigured, nil
	case err != nil:
		s.logger.Warn("business analysis failed", slog.String("account_id", accountID), slog.Any("error", err))
		return MessageUnavailable, nil
	}
	return text, nil
}
