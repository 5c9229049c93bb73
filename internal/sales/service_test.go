package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/platform/kv"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

type fixture struct {
	store     kv.Store
	sales     *Service
	inventory *inventory.Service
	events    []shared.LedgerEvent
}

func newFixture(t *testing.T, idem IdempotencyPort) *fixture {
	t.Helper()
	f := &fixture{store: kv.NewMemoryStore()}
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sink := shared.EventSinkFunc(func(_ context.Context, evt shared.LedgerEvent) error {
		f.events = append(f.events, evt)
		return nil
	})
	f.inventory = inventory.NewService(inventory.NewRepository(f.store), nil, shared.NopSink, nil, inventory.ServiceConfig{Clock: clock})
	f.sales = NewService(NewRepository(f.store), idem, sink, nil, ServiceConfig{Clock: clock})
	return f
}

func (f *fixture) product(t *testing.T, req inventory.CreateProductRequest) inventory.Product {
	t.Helper()
	p, err := f.inventory.AddProduct(context.Background(), "acc-1", req)
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.inventory.GetProduct(context.Background(), "acc-1", id)
	require.NoError(t, err)
	return p.StockQty
}

func TestRecordSaleComputesTaxCostAndProfit(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, inventory.CreateProductRequest{Name: "Sugar 1kg", SellingPrice: 50, CostPrice: 40, StockQty: 10, GSTRate: 5})

	sale, err := f.sales.RecordSale(context.Background(), "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 3, PaymentType: PaymentUPI})
	require.NoError(t, err)

	assert.Equal(t, "Sugar 1kg", sale.ItemName)
	assert.InDelta(t, 150, sale.Subtotal, 1e-9)
	assert.InDelta(t, 7.5, sale.GSTAmount, 1e-9)
	assert.InDelta(t, 157.5, sale.TotalAmount, 1e-9)
	assert.InDelta(t, 120, sale.CostOfGoodsSold, 1e-9)
	assert.InDelta(t, 30, sale.Profit, 1e-9)
	assert.Equal(t, 5.0, sale.GSTRate)
	assert.Equal(t, 7, f.stock(t, p.ID))

	require.Len(t, f.events, 1)
	require.Equal(t, shared.EventSaleRecorded, f.events[0].Kind)
	require.Equal(t, "UPI", f.events[0].Attrs["payment_type"])
}

func TestStockFollowsSalesAndPurchases(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, inventory.CreateProductRequest{Name: "Soap", SellingPrice: 30, CostPrice: 20, StockQty: 10})

	_, err := f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 3})
	require.NoError(t, err)
	_, err = f.inventory.RecordPurchase(ctx, "acc-1", inventory.RecordPurchaseRequest{ProductID: p.ID, Qty: 5, UnitPrice: 22})
	require.NoError(t, err)

	require.Equal(t, 12, f.stock(t, p.ID))
}

func TestRecordSaleRejectsOversell(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, inventory.CreateProductRequest{Name: "Tea", SellingPrice: 10, CostPrice: 8, StockQty: 2})

	_, err := f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 5})
	require.Error(t, err)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, 2, stockErr.Available)
	require.Equal(t, 5, stockErr.Requested)

	require.Equal(t, 2, f.stock(t, p.ID))
	list, err := f.sales.ListSales(ctx, "acc-1")
	require.NoError(t, err)
	require.Empty(t, list)
	require.Empty(t, f.events)
}

func TestSellingEntireStockLeavesZero(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, inventory.CreateProductRequest{Name: "Salt", SellingPrice: 20, StockQty: 4})

	_, err := f.sales.RecordSale(context.Background(), "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 4})
	require.NoError(t, err)
	require.Equal(t, 0, f.stock(t, p.ID))

	out, err := f.inventory.ListProducts(context.Background(), "acc-1", inventory.FilterOutOfStock)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestSaleProfitIsSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.product(t, inventory.CreateProductRequest{Name: "Biscuits", SellingPrice: 15, CostPrice: 10, StockQty: 5})

	sale, err := f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 2})
	require.NoError(t, err)
	require.InDelta(t, 10, sale.Profit, 1e-9)

	_, err = f.inventory.RecordPurchase(ctx, "acc-1", inventory.RecordPurchaseRequest{ProductID: p.ID, Qty: 1, UnitPrice: 20})
	require.NoError(t, err)

	stored, err := f.sales.GetSale(ctx, "acc-1", sale.ID)
	require.NoError(t, err)
	require.InDelta(t, 10, stored.Profit, 1e-9)
	require.InDelta(t, 20, stored.CostOfGoodsSold, 1e-9)
}

func TestRecordUnlinkedSale(t *testing.T) {
	f := newFixture(t, nil)
	sale, err := f.sales.RecordSale(context.Background(), "acc-1", RecordSaleRequest{
		ItemName: "Repair work", Qty: 1, Subtotal: 200, GSTRate: 18, PaymentType: PaymentCard,
	})
	require.NoError(t, err)
	require.Empty(t, sale.ProductID)
	require.InDelta(t, 36, sale.GSTAmount, 1e-9)
	require.InDelta(t, 236, sale.TotalAmount, 1e-9)
	require.Zero(t, sale.CostOfGoodsSold)
	require.Zero(t, sale.Profit)
}

func TestRecordSaleValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RecordSaleRequest
		want error
	}{
		{"zero qty", RecordSaleRequest{ItemName: "x", Qty: 0}, shared.ErrValidation},
		{"bad payment type", RecordSaleRequest{ItemName: "x", Qty: 1, PaymentType: "Cheque"}, shared.ErrValidation},
		{"no product or name", RecordSaleRequest{Qty: 1}, shared.ErrValidation},
		{"unknown product", RecordSaleRequest{ProductID: "missing", Qty: 1}, shared.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sales.RecordSale(ctx, "acc-1", tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestListSalesNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		_, err := f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ItemName: name, Qty: 1, Subtotal: 10, OccurredAt: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}
	_, err := f.sales.RecordSale(ctx, "acc-2", RecordSaleRequest{ItemName: "other", Qty: 1, Subtotal: 10})
	require.NoError(t, err)

	list, err := f.sales.ListSales(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"c", "b", "a"}, []string{list[0].ItemName, list[1].ItemName, list[2].ItemName})

	_, err = f.sales.GetSale(ctx, "acc-2", list[0].ID)
	require.ErrorIs(t, err, ErrSaleNotFound)
}

func TestRecordSaleIdempotencyKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	idem := shared.NewIdempotencyStore(client, "test:", time.Hour)

	f := newFixture(t, idem)
	ctx := context.Background()
	p := f.product(t, inventory.CreateProductRequest{Name: "Rice", SellingPrice: 60, CostPrice: 50, StockQty: 3})

	_, err := f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 5, IdempotencyKey: "k1"})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// the failed attempt released its key
	_, err = f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 1, IdempotencyKey: "k1"})
	require.NoError(t, err)

	_, err = f.sales.RecordSale(ctx, "acc-1", RecordSaleRequest{ProductID: p.ID, Qty: 1, IdempotencyKey: "k1"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, 2, f.stock(t, p.ID))
}
