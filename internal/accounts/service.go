package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// ErrAccountNotFound indicates an unknown account id or email.
var ErrAccountNotFound = fmt.Errorf("accounts: account %w", shared.ErrNotFound)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	BcryptCost int
	Clock      func() time.Time
}

// Service wraps account business rules.
type Service struct {
	repo   RepositoryPort
	events shared.EventSink
	logger *slog.Logger
	cost   int
	clock  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort, events shared.EventSink, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, events: events, logger: logger, cost: cfg.BcryptCost, clock: cfg.Clock}
}

// Signup creates an account. The email check and insert run in one atomic
// update so a duplicate leaves the collection unchanged.
func (s *Service) Signup(ctx context.Context, input SignupInput) (Account, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normaliseEmail(input.Email)
	if err := shared.ValidateStruct(input); err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Secret), s.cost)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: hash secret: %w", err)
	}
	now := s.clock().UTC()
	account := Account{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Email:      input.Email,
		SecretHash: string(hash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.FindByEmail(ctx, input.Email); err == nil {
			return shared.ErrEmailTaken
		} else if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		return tx.Insert(ctx, account)
	})
	if err != nil {
		return Account{}, err
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventAccountCreated,
		AccountID: account.ID,
		EntityID:  account.ID,
		At:        now,
	})
	return account, nil
}

// Login validates email/secret credentials.
func (s *Service) Login(ctx context.Context, email, secret string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, normaliseEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, shared.ErrInvalidCredentials
		}
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(secret)); err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	return account, nil
}

// UpdateProfile applies name/email changes. The email check excludes the
// account being updated.
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (Account, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	if update.Email != nil {
		email := normaliseEmail(*update.Email)
		update.Email = &email
	}
	if err := shared.ValidateStruct(update); err != nil {
		return Account{}, err
	}
	var updated Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if update.Email != nil && *update.Email != account.Email {
			other, err := tx.FindByEmail(ctx, *update.Email)
			switch {
			case err == nil && other.ID != account.ID:
				return shared.ErrEmailTaken
			case err != nil && !errors.Is(err, ErrAccountNotFound):
				return err
			}
			account.Email = *update.Email
		}
		if update.Name != nil {
			account.Name = *update.Name
		}
		account.UpdatedAt = s.clock().UTC()
		updated = account
		return tx.Update(ctx, account)
	})
	if err != nil {
		return Account{}, err
	}
	return updated, nil
}

// ChangePassword replaces the secret when current matches.
func (s *Service) ChangePassword(ctx context.Context, id string, change PasswordChange) error {
	if err := shared.ValidateStruct(change); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(change.Next), s.cost)
	if err != nil {
		return fmt.Errorf("accounts: hash secret: %w", err)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(change.Current)); err != nil {
			return shared.ErrWrongCurrentSecret
		}
		account.SecretHash = string(hash)
		account.UpdatedAt = s.clock().UTC()
		return tx.Update(ctx, account)
	})
}

// GetAccount loads an account by id.
func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// ListAccounts returns every account; used by background jobs.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
