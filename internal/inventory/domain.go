package inventory

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// Product is a stocked item. StockQty may go negative; CostPrice is the
// last purchase price per unit.
type Product struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	Name         string    `json:"name"`
	SellingPrice float64   `json:"sellingPriceExclTax"`
	CostPrice    float64   `json:"costPriceExclTax"`
	StockQty     int       `json:"stockQty"`
	GSTRate      float64   `json:"gstRatePercent"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EntityID implements kv.Entity.
func (p Product) EntityID() string { return p.ID }

// OwnerID implements kv.Entity.
func (p Product) OwnerID() string { return p.AccountID }

// PaymentStatus tracks whether a purchase has been paid to the supplier.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// Purchase records stock bought for a product.
type Purchase struct {
	ID            string        `json:"id"`
	AccountID     string        `json:"accountId"`
	ProductID     string        `json:"productId"`
	ProductName   string        `json:"productName"`
	Qty           int           `json:"qty"`
	UnitPrice     float64       `json:"unitPriceExclTax"`
	Subtotal      float64       `json:"subtotal"`
	GSTAmount     float64       `json:"gstAmount"`
	TotalAmount   float64       `json:"totalAmount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Notes         string        `json:"notes,omitempty"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

// EntityID implements kv.Entity.
func (p Purchase) EntityID() string { return p.ID }

// OwnerID implements kv.Entity.
func (p Purchase) OwnerID() string { return p.AccountID }

// StockFilter narrows product listings.
type StockFilter string

const (
	FilterAll        StockFilter = "all"
	FilterInStock    StockFilter = "inStock"
	FilterOutOfStock StockFilter = "outOfStock"
)

// CreateProductRequest carries add-product input.
type CreateProductRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	SellingPrice float64 `json:"sellingPriceExclTax" validate:"gte=0"`
	CostPrice    float64 `json:"costPriceExclTax" validate:"gte=0"`
	StockQty     int     `json:"stockQty" validate:"gte=0"`
	GSTRate      float64 `json:"gstRatePercent" validate:"gte=0,lte=100"`
}

// RecordPurchaseRequest carries purchase input. OccurredAt defaults to now.
type RecordPurchaseRequest struct {
	ProductID      string        `json:"productId" validate:"required"`
	Qty            int           `json:"qty"`
	UnitPrice      float64       `json:"unitPriceExclTax"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" validate:"oneof=paid unpaid"`
	Notes          string        `json:"notes" validate:"max=500"`
	OccurredAt     time.Time     `json:"occurredAt"`
	IdempotencyKey string        `json:"-"`
}

// PurchaseUpdate patches a purchase. It never touches stock or cost.
type PurchaseUpdate struct {
	PaymentStatus *PaymentStatus `json:"paymentStatus"`
	Notes         *string        `json:"notes"`
}

var (
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = fmt.Errorf("inventory: quantity must be greater than zero: %w", shared.ErrValidation)
	// ErrInvalidUnitCost indicates a negative unit price.
	ErrInvalidUnitCost = fmt.Errorf("inventory: unit price must be >= 0: %w", shared.ErrValidation)
	// ErrProductNotFound indicates an unknown product for the account.
	ErrProductNotFound = fmt.Errorf("inventory: product %w", shared.ErrNotFound)
	// ErrPurchaseNotFound indicates an unknown purchase for the account.
	ErrPurchaseNotFound = fmt.Errorf("inventory: purchase %w", shared.ErrNotFound)
)
