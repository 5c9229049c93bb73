package sales

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, accountID, id string) (Sale, error)
	List(ctx context.Context, accountID string) ([]Sale, error)
}

// IdempotencyPort guards against recording the same sale twice.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, accountID, module, key string) error
	Delete(ctx context.Context, accountID, module, key string) error
}

// Service records sales against inventory.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	events      shared.EventSink
	logger      *slog.Logger
	clock       func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Clock func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, idem IdempotencyPort, events shared.EventSink, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, idempotency: idem, events: events, logger: logger, clock: cfg.Clock}
}

// RecordSale books a sale. A sale linked to a product is priced from the
// product, decrements its stock and snapshots cost and profit, all in one
// commit. Overselling fails with *InsufficientStockError and writes nothing.
func (s *Service) RecordSale(ctx context.Context, accountID string, req RecordSaleRequest) (Sale, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.PaymentType == "" {
		req.PaymentType = PaymentCash
	}
	if err := shared.ValidateStruct(req); err != nil {
		return Sale{}, err
	}
	if req.ProductID == "" && req.ItemName == "" {
		return Sale{}, shared.Invalid("itemName is required for a sale without a product")
	}
	if err := s.claim(ctx, accountID, req.IdempotencyKey); err != nil {
		return Sale{}, err
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock()
	}
	sale := Sale{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		ProductID:   req.ProductID,
		ItemName:    req.ItemName,
		Qty:         req.Qty,
		PaymentType: req.PaymentType,
		Notes:       req.Notes,
		Photo:       req.Photo,
		OccurredAt:  occurred.UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if req.ProductID == "" {
			sale.Subtotal = req.Subtotal
			sale.GSTRate = req.GSTRate
			sale.GSTAmount, sale.TotalAmount = shared.ApplyGST(sale.Subtotal, req.GSTRate)
			return tx.InsertSale(ctx, sale)
		}
		product, err := tx.GetProduct(ctx, accountID, req.ProductID)
		if err != nil {
			return err
		}
		if req.Qty > product.StockQty {
			return &InsufficientStockError{ProductID: product.ID, Available: product.StockQty, Requested: req.Qty}
		}
		priceSale(&sale, product)
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}
		product.StockQty -= req.Qty
		product.UpdatedAt = s.clock().UTC()
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		s.release(ctx, accountID, req.IdempotencyKey)
		return Sale{}, fmt.Errorf("sales: record sale: %w", err)
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventSaleRecorded,
		AccountID: accountID,
		EntityID:  sale.ID,
		Amount:    sale.TotalAmount,
		Attrs:     map[string]string{"payment_type": string(sale.PaymentType), "product_id": sale.ProductID},
		At:        sale.OccurredAt,
	})
	return sale, nil
}

// priceSale fills the amounts of a product-linked sale. Profit is measured
// before tax.
func priceSale(sale *Sale, product inventory.Product) {
	if sale.ItemName == "" {
		sale.ItemName = product.Name
	}
	subtotal, gst, total := shared.CalculateLineTotals(sale.Qty, product.SellingPrice, product.GSTRate)
	sale.Subtotal = subtotal
	sale.GSTRate = product.GSTRate
	sale.GSTAmount = gst
	sale.TotalAmount = total
	sale.CostOfGoodsSold = product.CostPrice * float64(sale.Qty)
	sale.Profit = subtotal - sale.CostOfGoodsSold
}

// GetSale loads one sale.
func (s *Service) GetSale(ctx context.Context, accountID, id string) (Sale, error) {
	return s.repo.Get(ctx, accountID, id)
}

// ListSales returns sales, most recent first.
func (s *Service) ListSales(ctx context.Context, accountID string) ([]Sale, error) {
	list, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OccurredAt.After(list[j].OccurredAt)
	})
	return list, nil
}

func (s *Service) claim(ctx context.Context, accountID, key string) error {
	if s.idempotency == nil || key == "" {
		return nil
	}
	return s.idempotency.CheckAndInsert(ctx, accountID, "sale", key)
}

func (s *Service) release(ctx context.Context, accountID, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Delete(ctx, accountID, "sale", key); err != nil {
		s.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}
