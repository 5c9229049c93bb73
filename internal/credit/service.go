package credit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// DefaultReminderWindow is the day-count threshold for pending reminders.
const DefaultReminderWindow = 3

// ErrEntryNotFound indicates an unknown credit entry for the account.
var ErrEntryNotFound = fmt.Errorf("credit: entry %w", shared.ErrNotFound)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, accountID, id string) (Entry, error)
	List(ctx context.Context, accountID string) ([]Entry, error)
}

// CustomerDirectory resolves customers of an account.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, accountID, id string) (customers.Customer, error)
	ListCustomers(ctx context.Context, accountID string) ([]customers.Customer, error)
}

// AccountDirectory resolves the sender of reminder messages.
type AccountDirectory interface {
	GetAccount(ctx context.Context, id string) (accounts.Account, error)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Clock          func() time.Time
	Location       *time.Location
	ReminderWindow int
}

// Service implements the credit ledger.
type Service struct {
	repo      RepositoryPort
	customers CustomerDirectory
	accounts  AccountDirectory
	events    shared.EventSink
	logger    *slog.Logger
	clock     func() time.Time
	loc       *time.Location
	window    int
}

// NewService builds Service.
func NewService(repo RepositoryPort, customers CustomerDirectory, accounts AccountDirectory, events shared.EventSink, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ReminderWindow == 0 {
		cfg.ReminderWindow = DefaultReminderWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		customers: customers,
		accounts:  accounts,
		events:    events,
		logger:    logger,
		clock:     cfg.Clock,
		loc:       cfg.Location,
		window:    cfg.ReminderWindow,
	}
}

// Location is the timezone used for calendar-day arithmetic.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ReminderWindow returns the configured default window in days.
func (s *Service) ReminderWindow() int {
	return s.window
}

// AddEntry records credit given to a customer. New entries are always
// unpaid and issued now.
func (s *Service) AddEntry(ctx context.Context, accountID string, req CreateEntryRequest) (Entry, error) {
	req.Note = strings.TrimSpace(req.Note)
	if err := shared.ValidateStruct(req); err != nil {
		return Entry{}, err
	}
	if _, err := s.customers.GetCustomer(ctx, accountID, req.CustomerID); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Note:       req.Note,
		Photo:      req.Photo,
		IssuedAt:   s.clock().UTC(),
		DueDate:    shared.Date(req.DueDate, s.loc),
		Status:     StatusUnpaid,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, entry)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("credit: add entry: %w", err)
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventCreditAdded,
		AccountID: accountID,
		EntityID:  entry.ID,
		Amount:    entry.Amount,
		Attrs:     map[string]string{"customer_id": entry.CustomerID},
		At:        entry.IssuedAt,
	})
	return entry, nil
}

// UpdateEntry applies a patch. Setting status paid on an unpaid entry stamps
// PaidAt with the supplied time or now; re-applying paid to a paid entry
// never moves PaidAt. Paid entries cannot return to unpaid.
func (s *Service) UpdateEntry(ctx context.Context, accountID, id string, update EntryUpdate) (Entry, error) {
	var (
		updated    Entry
		becamePaid bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		becamePaid, err = s.applyUpdate(&entry, update)
		if err != nil {
			return err
		}
		updated = entry
		return tx.Update(ctx, entry)
	})
	if err != nil {
		return Entry{}, err
	}
	kind := shared.EventCreditUpdated
	if becamePaid {
		kind = shared.EventCreditPaid
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      kind,
		AccountID: accountID,
		EntityID:  updated.ID,
		Amount:    updated.Amount,
		Attrs:     map[string]string{"customer_id": updated.CustomerID},
		At:        s.clock().UTC(),
	})
	return updated, nil
}

func (s *Service) applyUpdate(entry *Entry, update EntryUpdate) (bool, error) {
	becamePaid := false
	if update.Status != nil {
		switch *update.Status {
		case StatusPaid:
			if entry.Status == StatusUnpaid {
				paidAt := s.clock().UTC()
				if update.PaidAt != nil {
					paidAt = update.PaidAt.UTC()
					if paidAt.Before(entry.IssuedAt) {
						return false, shared.Invalid("paid date is before the credit was issued")
					}
				}
				entry.Status = StatusPaid
				entry.PaidAt = &paidAt
				becamePaid = true
			} else if update.PaidAt != nil {
				return false, shared.Invalid("entry is already paid")
			}
		case StatusUnpaid:
			if entry.Status == StatusPaid {
				return false, shared.Invalid("a paid entry cannot be marked unpaid")
			}
			if update.PaidAt != nil {
				return false, shared.Invalid("paid date requires status paid")
			}
		default:
			return false, shared.Invalid("unknown status %q", *update.Status)
		}
	} else if update.PaidAt != nil {
		return false, shared.Invalid("paid date requires status paid")
	}
	if update.Note != nil {
		entry.Note = strings.TrimSpace(*update.Note)
	}
	if update.Photo != nil {
		entry.Photo = *update.Photo
	}
	if update.DueDate != nil {
		entry.DueDate = shared.Date(*update.DueDate, s.loc)
	}
	return becamePaid, nil
}

// MarkPaid marks an entry paid now, keeping an earlier PaidAt.
func (s *Service) MarkPaid(ctx context.Context, accountID, id string) (Entry, error) {
	paid := StatusPaid
	return s.UpdateEntry(ctx, accountID, id, EntryUpdate{Status: &paid})
}

// GetEntry loads one entry.
func (s *Service) GetEntry(ctx context.Context, accountID, id string) (Entry, error) {
	return s.repo.Get(ctx, accountID, id)
}

// ListEntries returns every entry of the account in insertion order.
func (s *Service) ListEntries(ctx context.Context, accountID string) ([]Entry, error) {
	return s.repo.List(ctx, accountID)
}

// ListForCustomer returns the customer's entries, most recently issued first.
func (s *Service) ListForCustomer(ctx context.Context, accountID, customerID string) ([]Entry, error) {
	all, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	return out, nil
}

// OutstandingBalance sums the unpaid amounts of one customer.
func (s *Service) OutstandingBalance(ctx context.Context, accountID, customerID string) (float64, error) {
	entries, err := s.ListForCustomer(ctx, accountID, customerID)
	if err != nil {
		return 0, err
	}
	return SumOutstanding(entries), nil
}

// TotalOutstanding sums the unpaid amounts across all customers.
func (s *Service) TotalOutstanding(ctx context.Context, accountID string) (float64, error) {
	entries, err := s.repo.List(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return SumOutstanding(entries), nil
}

// SumOutstanding totals the amount of unpaid entries.
func SumOutstanding(entries []Entry) float64 {
	total := 0.0
	for _, e := range entries {
		if e.Status == StatusUnpaid {
			total += e.Amount
		}
	}
	return total
}
