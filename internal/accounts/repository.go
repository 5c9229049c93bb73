package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/odyssey-erp/udharbook/internal/platform/kv"
)

const usersKey = "users"

var usersTable = kv.NewCollection[Account](usersKey)

// Repository persists accounts in the key/value store.
type Repository struct {
	store kv.Store
}

// NewRepository constructs Repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	Insert(ctx context.Context, account Account) error
	Update(ctx context.Context, account Account) error
}

type txRepo struct {
	tx kv.Txn
}

// WithTx runs fn atomically over the accounts collection.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Update(ctx, []string{usersKey}, func(ctx context.Context, tx kv.Txn) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get loads an account by id.
func (r *Repository) Get(ctx context.Context, id string) (Account, error) {
	return getAccount(ctx, r.store, id)
}

// FindByEmail loads an account by its normalised email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	return findByEmail(ctx, r.store, email)
}

// List returns every account in signup order.
func (r *Repository) List(ctx context.Context) ([]Account, error) {
	return usersTable.All(ctx, r.store)
}

func (t *txRepo) FindByEmail(ctx context.Context, email string) (Account, error) {
	return findByEmail(ctx, t.tx, email)
}

func (t *txRepo) Get(ctx context.Context, id string) (Account, error) {
	return getAccount(ctx, t.tx, id)
}

func (t *txRepo) Insert(ctx context.Context, account Account) error {
	return usersTable.Append(ctx, t.tx, account)
}

func (t *txRepo) Update(ctx context.Context, account Account) error {
	err := usersTable.Replace(ctx, t.tx, account)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}

func getAccount(ctx context.Context, r kv.Reader, id string) (Account, error) {
	account, err := usersTable.Find(ctx, r, id, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Account{}, ErrAccountNotFound
	}
	return account, err
}

func findByEmail(ctx context.Context, r kv.Reader, email string) (Account, error) {
	all, err := usersTable.All(ctx, r)
	if err != nil {
		return Account{}, err
	}
	for _, account := range all {
		if strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}
