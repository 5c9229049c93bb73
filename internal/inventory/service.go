package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, accountID, id string) (Product, error)
	ListProducts(ctx context.Context, accountID string) ([]Product, error)
	GetPurchase(ctx context.Context, accountID, id string) (Purchase, error)
	ListPurchases(ctx context.Context, accountID string) ([]Purchase, error)
}

// IdempotencyPort guards against recording the same purchase twice.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, accountID, module, key string) error
	Delete(ctx context.Context, accountID, module, key string) error
}

// Service coordinates product and purchase operations.
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

// AddProduct creates a product.
func (s *Service) AddProduct(ctx context.Context, accountID string, req CreateProductRequest) (Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(req); err != nil {
		return Product{}, err
	}
	now := s.clock().UTC()
	product := Product{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Name:         req.Name,
		SellingPrice: req.SellingPrice,
		CostPrice:    req.CostPrice,
		StockQty:     req.StockQty,
		GSTRate:      req.GSTRate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertProduct(ctx, product)
	})
	if err != nil {
		return Product{}, fmt.Errorf("inventory: add product: %w", err)
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventProductAdded,
		AccountID: accountID,
		EntityID:  product.ID,
		At:        now,
	})
	return product, nil
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, accountID, id string) (Product, error) {
	return s.repo.GetProduct(ctx, accountID, id)
}

// ListProducts returns products matching filter in insertion order.
func (s *Service) ListProducts(ctx context.Context, accountID string, filter StockFilter) ([]Product, error) {
	all, err := s.repo.ListProducts(ctx, accountID)
	if err != nil {
		return nil, err
	}
	switch filter {
	case "", FilterAll:
		return all, nil
	case FilterInStock, FilterOutOfStock:
	default:
		return nil, shared.Invalid("unknown stock filter %q", filter)
	}
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if (filter == FilterInStock && p.StockQty > 0) || (filter == FilterOutOfStock && p.StockQty <= 0) {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordPurchase books stock bought for a product. The product's stock grows
// by Qty and its cost price is reset to subtotal/Qty in the same commit as
// the purchase entry.
func (s *Service) RecordPurchase(ctx context.Context, accountID string, req RecordPurchaseRequest) (Purchase, error) {
	if req.Qty <= 0 {
		return Purchase{}, ErrInvalidQuantity
	}
	if req.UnitPrice < 0 {
		return Purchase{}, ErrInvalidUnitCost
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = PaymentPaid
	}
	req.Notes = strings.TrimSpace(req.Notes)
	if err := shared.ValidateStruct(req); err != nil {
		return Purchase{}, err
	}
	if err := s.claim(ctx, accountID, req.IdempotencyKey); err != nil {
		return Purchase{}, err
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock()
	}
	var purchase Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProduct(ctx, accountID, req.ProductID)
		if err != nil {
			return err
		}
		subtotal, gst, total := shared.CalculateLineTotals(req.Qty, req.UnitPrice, product.GSTRate)
		purchase = Purchase{
			ID:            uuid.NewString(),
			AccountID:     accountID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			Qty:           req.Qty,
			UnitPrice:     req.UnitPrice,
			Subtotal:      subtotal,
			GSTAmount:     gst,
			TotalAmount:   total,
			PaymentStatus: req.PaymentStatus,
			Notes:         req.Notes,
			OccurredAt:    occurred.UTC(),
		}
		if err := tx.InsertPurchase(ctx, purchase); err != nil {
			return err
		}
		product.StockQty += req.Qty
		product.CostPrice = subtotal / float64(req.Qty)
		product.UpdatedAt = s.clock().UTC()
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		s.release(ctx, accountID, req.IdempotencyKey)
		return Purchase{}, err
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventPurchaseRecorded,
		AccountID: accountID,
		EntityID:  purchase.ID,
		Amount:    purchase.TotalAmount,
		Attrs:     map[string]string{"product_id": purchase.ProductID, "payment_status": string(purchase.PaymentStatus)},
		At:        purchase.OccurredAt,
	})
	return purchase, nil
}

// UpdatePurchase patches payment status or notes. It never re-applies the
// stock or cost side effects, and a paid purchase cannot become unpaid.
func (s *Service) UpdatePurchase(ctx context.Context, accountID, id string, update PurchaseUpdate) (Purchase, error) {
	var updated Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchase(ctx, accountID, id)
		if err != nil {
			return err
		}
		if update.PaymentStatus != nil {
			switch *update.PaymentStatus {
			case PaymentPaid:
				purchase.PaymentStatus = PaymentPaid
			case PaymentUnpaid:
				if purchase.PaymentStatus == PaymentPaid {
					return shared.Invalid("a paid purchase cannot be marked unpaid")
				}
			default:
				return shared.Invalid("unknown payment status %q", *update.PaymentStatus)
			}
		}
		if update.Notes != nil {
			purchase.Notes = strings.TrimSpace(*update.Notes)
		}
		updated = purchase
		return tx.UpdatePurchase(ctx, purchase)
	})
	if err != nil {
		return Purchase{}, err
	}
	shared.Emit(ctx, s.events, s.logger, shared.LedgerEvent{
		Kind:      shared.EventPurchaseUpdated,
		AccountID: accountID,
		EntityID:  updated.ID,
		Amount:    updated.TotalAmount,
		Attrs:     map[string]string{"payment_status": string(updated.PaymentStatus)},
		At:        s.clock().UTC(),
	})
	return updated, nil
}

// MarkPurchasePaid flips a purchase to paid.
func (s *Service) MarkPurchasePaid(ctx context.Context, accountID, id string) (Purchase, error) {
	paid := PaymentPaid
	return s.UpdatePurchase(ctx, accountID, id, PurchaseUpdate{PaymentStatus: &paid})
}

// GetPurchase loads one purchase.
func (s *Service) GetPurchase(ctx context.Context, accountID, id string) (Purchase, error) {
	return s.repo.GetPurchase(ctx, accountID, id)
}

// ListPurchases returns purchases, most recent first.
func (s *Service) ListPurchases(ctx context.Context, accountID string) ([]Purchase, error) {
	list, err := s.repo.ListPurchases(ctx, accountID)
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
	return s.idempotency.CheckAndInsert(ctx, accountID, "purchase", key)
}

func (s *Service) release(ctx context.Context, accountID, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Delete(ctx, accountID, "purchase", key); err != nil {
		s.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}
