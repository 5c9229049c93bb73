package customers

import (
	"context"
	"errors"

	"github.com/odyssey-erp/udharbook/internal/platform/kv"
)

// StoreKey is the collection key for customers.
const StoreKey = "customers"

// Table is the owner-partitioned customers collection.
var Table = kv.NewCollection[Customer](StoreKey)

// Repository persists customers in the key/value store.
type Repository struct {
	store kv.Store
}

// NewRepository constructs Repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// Create appends a customer.
func (r *Repository) Create(ctx context.Context, customer Customer) error {
	return r.store.Update(ctx, []string{StoreKey}, func(ctx context.Context, tx kv.Txn) error {
		return Table.Append(ctx, tx, customer)
	})
}

// Get loads a customer owned by accountID.
func (r *Repository) Get(ctx context.Context, accountID, id string) (Customer, error) {
	customer, err := Table.Find(ctx, r.store, accountID, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Customer{}, ErrCustomerNotFound
	}
	return customer, err
}

// List returns the account's customers in insertion order.
func (r *Repository) List(ctx context.Context, accountID string) ([]Customer, error) {
	return Table.Owned(ctx, r.store, accountID)
}
