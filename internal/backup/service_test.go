package backup

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/platform/kv"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

type fixture struct {
	svc       *Service
	accountID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	clock := func() time.Time { return time.Date(2024, 4, 1, 20, 0, 0, 0, time.UTC) }
	ist := time.FixedZone("IST", 5*3600+1800)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	accountSvc := accounts.NewService(accounts.NewRepository(store), shared.NopSink, logger, accounts.ServiceConfig{BcryptCost: bcrypt.MinCost, Clock: clock})
	customerSvc := customers.NewService(customers.NewRepository(store), shared.NopSink, logger, clock)
	creditSvc := credit.NewService(credit.NewRepository(store), customerSvc, accountSvc, shared.NopSink, logger, credit.ServiceConfig{Clock: clock, Location: ist})
	inventorySvc := inventory.NewService(inventory.NewRepository(store), nil, shared.NopSink, logger, inventory.ServiceConfig{Clock: clock})
	salesSvc := sales.NewService(sales.NewRepository(store), nil, shared.NopSink, logger, sales.ServiceConfig{Clock: clock})

	acc, err := accountSvc.Signup(ctx, accounts.SignupInput{Name: "Sharma Kirana", Email: "sharma@example.com", Secret: "secret1"})
	require.NoError(t, err)
	cust, err := customerSvc.AddCustomer(ctx, acc.ID, customers.CreateCustomerRequest{Name: "Ravi", Phone: "9876543210"})
	require.NoError(t, err)
	_, err = creditSvc.AddEntry(ctx, acc.ID, credit.CreateEntryRequest{CustomerID: cust.ID, Amount: 300, DueDate: clock().AddDate(0, 0, 7)})
	require.NoError(t, err)
	product, err := inventorySvc.AddProduct(ctx, acc.ID, inventory.CreateProductRequest{Name: "Dal", SellingPrice: 120, CostPrice: 100, StockQty: 5})
	require.NoError(t, err)
	_, err = inventorySvc.RecordPurchase(ctx, acc.ID, inventory.RecordPurchaseRequest{ProductID: product.ID, Qty: 2, UnitPrice: 95})
	require.NoError(t, err)
	_, err = salesSvc.RecordSale(ctx, acc.ID, sales.RecordSaleRequest{ProductID: product.ID, Qty: 1})
	require.NoError(t, err)

	svc := NewService(Sources{
		Accounts:  accountSvc,
		Customers: customerSvc,
		Credit:    creditSvc,
		Sales:     salesSvc,
		Inventory: inventorySvc,
	}, logger, ServiceConfig{Location: ist, Clock: clock})
	return fixture{svc: svc, accountID: acc.ID}
}

func TestExportOmitsInventoryByDefault(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Export(context.Background(), f.accountID, Options{})
	require.NoError(t, err)

	require.Equal(t, UserInfo{Name: "Sharma Kirana", Email: "sharma@example.com"}, doc.UserInfo)
	require.Len(t, doc.Customers, 1)
	require.Len(t, doc.CreditEntries, 1)
	require.Len(t, doc.SaleEntries, 1)
	require.Nil(t, doc.Products)
	require.Nil(t, doc.PurchaseEntries)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"products"`)
	require.NotContains(t, string(raw), `"purchaseEntries"`)
	require.NotContains(t, string(raw), "secretHash")
}

func TestExportIncludeInventory(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Export(context.Background(), f.accountID, Options{IncludeInventory: true})
	require.NoError(t, err)
	require.Len(t, doc.Products, 1)
	require.Len(t, doc.PurchaseEntries, 1)
	require.Equal(t, 6, doc.Products[0].StockQty)
}

func TestExportUnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Export(context.Background(), "missing", Options{})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDownloadUsesLocalDateFilename(t *testing.T) {
	f := newFixture(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{}
			sess.SetAccount(f.accountID)
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/backup", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/backup/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	// 20:00 UTC is already the next day in IST
	require.Contains(t, rr.Header().Get("Content-Disposition"), "backup-2024-04-02.json")

	var doc Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	require.Equal(t, "sharma@example.com", doc.UserInfo.Email)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/backup/?includeInventory=maybe", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
