package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// ErrCustomerNotFound indicates an unknown customer for the account.
var ErrCustomerNotFound = fmt.Errorf("customers: customer %w", shared.ErrNotFound)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Create(ctx context.Context, customer Customer) error
	Get(ctx context.Context, accountID, id string) (Customer, error)
	List(ctx context.Context, accountID string) ([]Customer, error)
}

// Service implements the customer operations.
type Service struct {
	repo   RepositoryPort
	events shared.EventSink
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service. A nil clock defaults to time.Now.
func NewService(repo RepositoryPort, events shared.EventSink, logger *slog.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, events: events, logger: logger, clock: clock}
}

// AddCustomer creates a customer for accountID. Phones are not deduplicated.
func (s *Service) AddCustomer(ctx context.Context, accountID string, req CreateCustomerRequest) (Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if err := shared.ValidateStruct(req); err != nil {
		return Customer{}, err
	}
	phone, err := NormalisePhone(req.Phone)
	if err != nil {
		return Customer{}, err
	}
	customer := Customer{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      req.Name,
		Phone:     phone,
		Address:   req.Address,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventCustomerAdded,
		AccountID: accountID,
		EntityID:  customer.ID,
		At:        customer.CreatedAt,
	})
	return customer, nil
}

// GetCustomer returns the customer when it belongs to accountID.
func (s *Service) GetCustomer(ctx context.Context, accountID, id string) (Customer, error) {
	return s.repo.Get(ctx, accountID, id)
}

// ListCustomers returns the account's customers in insertion order.
func (s *Service) ListCustomers(ctx context.Context, accountID string) ([]Customer, error) {
	return s.repo.List(ctx, accountID)
}

// NormalisePhone turns a 10-digit local number into +91 form. Numbers
// already carrying a + country prefix are kept as digits after the +.
func NormalisePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	international := strings.HasPrefix(raw, "+")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		if r == ' ' || r == '-' || r == '(' || r == ')' || r == '+' {
			return -1
		}
		return 'x'
	}, raw)
	if strings.ContainsRune(digits, 'x') {
		return "", shared.Invalid("phone must contain digits only")
	}
	switch {
	case international && len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	case !international && len(digits) == 10:
		return "+91" + digits, nil
	default:
		return "", shared.Invalid("phone must be a 10 digit number")
	}
}
