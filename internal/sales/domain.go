// Package sales records sales and derives their tax, cost of goods and
// profit at the moment of sale.
package sales

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// PaymentType is how the customer paid.
type PaymentType string

const (
	PaymentCash   PaymentType = "Cash"
	PaymentUPI    PaymentType = "UPI"
	PaymentOnline PaymentType = "Online"
	PaymentCard   PaymentType = "Card"
)

// PaymentTypes lists every accepted payment type in display order.
var PaymentTypes = []PaymentType{PaymentCash, PaymentUPI, PaymentOnline, PaymentCard}

// Sale is immutable once recorded. CostOfGoodsSold and Profit are snapshots
// of the product's cost price at the time of sale.
type Sale struct {
	ID              string      `json:"id"`
	AccountID       string      `json:"accountId"`
	ProductID       string      `json:"productId,omitempty"`
	ItemName        string      `json:"itemName"`
	Qty             int         `json:"qty"`
	Subtotal        float64     `json:"subtotal"`
	GSTRate         float64     `json:"gstRatePercent"`
	GSTAmount       float64     `json:"gstAmount"`
	TotalAmount     float64     `json:"totalAmount"`
	CostOfGoodsSold float64     `json:"costOfGoodsSold"`
	Profit          float64     `json:"profit"`
	PaymentType     PaymentType `json:"paymentType"`
	Notes           string      `json:"notes,omitempty"`
	Photo           string      `json:"photo,omitempty"`
	OccurredAt      time.Time   `json:"occurredAt"`
}

// EntityID implements kv.Entity.
func (s Sale) EntityID() string { return s.ID }

// OwnerID implements kv.Entity.
func (s Sale) OwnerID() string { return s.AccountID }

// RecordSaleRequest carries sale input. Subtotal and GSTRate are only read
// for sales that are not linked to a product.
type RecordSaleRequest struct {
	ProductID      string      `json:"productId"`
	ItemName       string      `json:"itemName" validate:"max=200"`
	Qty            int         `json:"qty" validate:"gt=0"`
	PaymentType    PaymentType `json:"paymentType" validate:"oneof=Cash UPI Online Card"`
	Notes          string      `json:"notes" validate:"max=500"`
	Photo          string      `json:"photo"`
	Subtotal       float64     `json:"subtotal" validate:"gte=0"`
	GSTRate        float64     `json:"gstRatePercent" validate:"gte=0,lte=100"`
	OccurredAt     time.Time   `json:"occurredAt"`
	IdempotencyKey string      `json:"-"`
}

// InsufficientStockError reports an oversell attempt.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("sales: insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

// Unwrap lets errors.Is match shared.ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// ProblemFields exposes the available quantity in problem responses.
func (e *InsufficientStockError) ProblemFields() map[string]any {
	return map[string]any{"productId": e.ProductID, "available": e.Available, "requested": e.Requested}
}

// ErrSaleNotFound indicates an unknown sale for the account.
var ErrSaleNotFound = fmt.Errorf("sales: sale %w", shared.ErrNotFound)
