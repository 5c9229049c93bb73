package sales

import (
	"context"
	"errors"

	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/platform/kv"
)

// StoreKey is the collection key for sale entries.
const StoreKey = "sale_entries"

// Table is the owner-partitioned sale entries collection.
var Table = kv.NewCollection[Sale](StoreKey)

// Repository persists sales in the key/value store.
type Repository struct {
	store kv.Store
}

// NewRepository constructs Repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetProduct(ctx context.Context, accountID, id string) (inventory.Product, error)
	UpdateProduct(ctx context.Context, product inventory.Product) error
	InsertSale(ctx context.Context, sale Sale) error
}

type txRepo struct {
	tx kv.Txn
}

// WithTx runs fn atomically over sales and products so the sale entry and
// the stock decrement commit together.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Update(ctx, []string{StoreKey, inventory.ProductsKey}, func(ctx context.Context, tx kv.Txn) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get loads a sale owned by accountID.
func (r *Repository) Get(ctx context.Context, accountID, id string) (Sale, error) {
	sale, err := Table.Find(ctx, r.store, accountID, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Sale{}, ErrSaleNotFound
	}
	return sale, err
}

// List returns the account's sales in insertion order.
func (r *Repository) List(ctx context.Context, accountID string) ([]Sale, error) {
	return Table.Owned(ctx, r.store, accountID)
}

func (t *txRepo) GetProduct(ctx context.Context, accountID, id string) (inventory.Product, error) {
	return inventory.FindProduct(ctx, t.tx, accountID, id)
}

func (t *txRepo) UpdateProduct(ctx context.Context, product inventory.Product) error {
	return inventory.SaveProduct(ctx, t.tx, product)
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) error {
	return Table.Append(ctx, t.tx, sale)
}
