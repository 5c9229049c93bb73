package credit

import (
	"context"
	"errors"

	"github.com/odyssey-erp/udharbook/internal/platform/kv"
)

// StoreKey is the collection key for credit entries.
const StoreKey = "credit_entries"

// Table is the owner-partitioned credit entries collection.
var Table = kv.NewCollection[Entry](StoreKey)

// Repository persists credit entries in the key/value store.
type Repository struct {
	store kv.Store
}

// NewRepository constructs Repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	Get(ctx context.Context, accountID, id string) (Entry, error)
	Insert(ctx context.Context, entry Entry) error
	Update(ctx context.Context, entry Entry) error
}

type txRepo struct {
	tx kv.Txn
}

// WithTx runs fn atomically over the credit entries collection.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Update(ctx, []string{StoreKey}, func(ctx context.Context, tx kv.Txn) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get loads an entry owned by accountID.
func (r *Repository) Get(ctx context.Context, accountID, id string) (Entry, error) {
	return getEntry(ctx, r.store, accountID, id)
}

// List returns every entry of the account in insertion order.
func (r *Repository) List(ctx context.Context, accountID string) ([]Entry, error) {
	return Table.Owned(ctx, r.store, accountID)
}

func (t *txRepo) Get(ctx context.Context, accountID, id string) (Entry, error) {
	return getEntry(ctx, t.tx, accountID, id)
}

func (t *txRepo) Insert(ctx context.Context, entry Entry) error {
	return Table.Append(ctx, t.tx, entry)
}

func (t *txRepo) Update(ctx context.Context, entry Entry) error {
	err := Table.Replace(ctx, t.tx, entry)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}

func getEntry(ctx context.Context, r kv.Reader, accountID, id string) (Entry, error) {
	entry, err := Table.Find(ctx, r, accountID, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}
