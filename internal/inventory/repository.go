package inventory

import (
	"context"
	"errors"

	"github.com/odyssey-erp/udharbook/internal/platform/kv"
)

const (
	// ProductsKey is the collection key for products.
	ProductsKey = "products"
	// PurchasesKey is the collection key for purchase entries.
	PurchasesKey = "purchase_entries"
)

var (
	// Products is the owner-partitioned products collection.
	Products = kv.NewCollection[Product](ProductsKey)
	// Purchases is the owner-partitioned purchase entries collection.
	Purchases = kv.NewCollection[Purchase](PurchasesKey)
)

// Repository persists products and purchases in the key/value store.
type Repository struct {
	store kv.Store
}

// NewRepository constructs Repository.
func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetProduct(ctx context.Context, accountID, id string) (Product, error)
	InsertProduct(ctx context.Context, product Product) error
	UpdateProduct(ctx context.Context, product Product) error
	GetPurchase(ctx context.Context, accountID, id string) (Purchase, error)
	InsertPurchase(ctx context.Context, purchase Purchase) error
	UpdatePurchase(ctx context.Context, purchase Purchase) error
}

type txRepo struct {
	tx kv.Txn
}

// WithTx runs fn atomically over products and purchases so that stock, cost
// and the purchase entry commit together.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.Update(ctx, []string{ProductsKey, PurchasesKey}, func(ctx context.Context, tx kv.Txn) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetProduct loads a product owned by accountID.
func (r *Repository) GetProduct(ctx context.Context, accountID, id string) (Product, error) {
	return FindProduct(ctx, r.store, accountID, id)
}

// ListProducts returns the account's products in insertion order.
func (r *Repository) ListProducts(ctx context.Context, accountID string) ([]Product, error) {
	return Products.Owned(ctx, r.store, accountID)
}

// GetPurchase loads a purchase owned by accountID.
func (r *Repository) GetPurchase(ctx context.Context, accountID, id string) (Purchase, error) {
	return findPurchase(ctx, r.store, accountID, id)
}

// ListPurchases returns the account's purchases in insertion order.
func (r *Repository) ListPurchases(ctx context.Context, accountID string) ([]Purchase, error) {
	return Purchases.Owned(ctx, r.store, accountID)
}

func (t *txRepo) GetProduct(ctx context.Context, accountID, id string) (Product, error) {
	return FindProduct(ctx, t.tx, accountID, id)
}

func (t *txRepo) InsertProduct(ctx context.Context, product Product) error {
	return Products.Append(ctx, t.tx, product)
}

func (t *txRepo) UpdateProduct(ctx context.Context, product Product) error {
	return SaveProduct(ctx, t.tx, product)
}

func (t *txRepo) GetPurchase(ctx context.Context, accountID, id string) (Purchase, error) {
	return findPurchase(ctx, t.tx, accountID, id)
}

func (t *txRepo) InsertPurchase(ctx context.Context, purchase Purchase) error {
	return Purchases.Append(ctx, t.tx, purchase)
}

func (t *txRepo) UpdatePurchase(ctx context.Context, purchase Purchase) error {
	err := Purchases.Replace(ctx, t.tx, purchase)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrPurchaseNotFound
	}
	return err
}

// FindProduct loads a product through any reader, including a transaction
// opened by another package that also locks ProductsKey.
func FindProduct(ctx context.Context, r kv.Reader, accountID, id string) (Product, error) {
	product, err := Products.Find(ctx, r, accountID, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Product{}, ErrProductNotFound
	}
	return product, err
}

// SaveProduct stages a product update inside tx.
func SaveProduct(ctx context.Context, tx kv.Txn, product Product) error {
	err := Products.Replace(ctx, tx, product)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func findPurchase(ctx context.Context, r kv.Reader, accountID, id string) (Purchase, error) {
	purchase, err := Purchases.Find(ctx, r, accountID, id)
	if errors.Is(err, kv.ErrNotFound) {
		return Purchase{}, ErrPurchaseNotFound
	}
	return purchase, err
}
