// Package backup assembles a downloadable JSON copy of an account's ledger.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/sales"
)

// Sources groups the readers the export depends on.
type Sources struct {
	Accounts interface {
		GetAccount(ctx context.Context, id string) (accounts.Account, error)
	}
	Customers interface {
		ListCustomers(ctx context.Context, accountID string) ([]customers.Customer, error)
	}
	Credit interface {
		ListEntries(ctx context.Context, accountID string) ([]credit.Entry, error)
	}
	Sales interface {
		ListSales(ctx context.Context, accountID string) ([]sales.Sale, error)
	}
	Inventory interface {
		ListProducts(ctx context.Context, accountID string, filter inventory.StockFilter) ([]inventory.Product, error)
		ListPurchases(ctx context.Context, accountID string) ([]inventory.Purchase, error)
	}
}

// UserInfo identifies the exporting account.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Document is the backup file body. Products and purchases are only present
// when requested with Options.IncludeInventory.
type Document struct {
	UserInfo        UserInfo             `json:"userInfo"`
	Customers       []customers.Customer `json:"customers"`
	CreditEntries   []credit.Entry       `json:"creditEntries"`
	SaleEntries     []sales.Sale         `json:"saleEntries"`
	Products        []inventory.Product  `json:"products,omitempty"`
	PurchaseEntries []inventory.Purchase `json:"purchaseEntries,omitempty"`
	ExportedAt      time.Time            `json:"exportedAt"`
}

// Options tunes an export.
type Options struct {
	IncludeInventory bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Location *time.Location
	Clock    func() time.Time
}

// Service builds backups.
type Service struct {
	src    Sources
	logger *slog.Logger
	loc    *time.Location
	clock  func() time.Time
}

// NewService constructs Service.
func NewService(src Sources, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, logger: logger, loc: cfg.Location, clock: cfg.Clock}
}

// Export collects the account's ledger into a Document.
func (s *Service) Export(ctx context.Context, accountID string, opts Options) (Document, error) {
	account, err := s.src.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return Document{}, err
	}
	doc := Document{
		UserInfo:      UserInfo{Name: account.Name, Email: account.Email},
		Customers:     []customers.Customer{},
		CreditEntries: []credit.Entry{},
		SaleEntries:   []sales.Sale{},
		ExportedAt:    s.clock().UTC(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.src.Customers.ListCustomers(ctx, accountID)
		if list != nil {
			doc.Customers = list
		}
		return err
	})
	g.Go(func() error {
		list, err := s.src.Credit.ListEntries(ctx, accountID)
		if list != nil {
			doc.CreditEntries = list
		}
		return err
	})
	g.Go(func() error {
		list, err := s.src.Sales.ListSales(ctx, accountID)
		if list != nil {
			doc.SaleEntries = list
		}
		return err
	})
	if opts.IncludeInventory {
		g.Go(func() error {
			list, err := s.src.Inventory.ListProducts(ctx, accountID, inventory.FilterAll)
			doc.Products = list
			return err
		})
		g.Go(func() error {
			list, err := s.src.Inventory.ListPurchases(ctx, accountID)
			doc.PurchaseEntries = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Document{}, fmt.Errorf("backup: export: %w", err)
	}
	s.logger.Info("backup exported",
		slog.String("account_id", accountID),
		slog.Int("customers", len(doc.Customers)),
		slog.Int("credit_entries", len(doc.CreditEntries)),
		slog.Int("sale_entries", len(doc.SaleEntries)),
		slog.Bool("inventory", opts.IncludeInventory))
	return doc, nil
}

// Filename suggests the download name for a backup taken now.
func (s *Service) Filename() string {
	return fmt.Sprintf("backup-%s.json", s.clock().In(s.loc).Format("2006-01-02"))
}
