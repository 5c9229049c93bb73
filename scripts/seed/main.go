package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/app"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/platform/cache"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

const (
	demoEmail  = "demo@udhar.local"
	demoSecret = "demo123"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr, 0)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	store, err := app.OpenStore(ctx, cfg, redisClient)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	svc := app.NewServices(app.ServiceDeps{Config: cfg, Logger: logger, Store: store, Redis: redisClient})

	fmt.Println("→ Seeding account...")
	acc, err := svc.Accounts.Signup(ctx, accounts.SignupInput{Name: "Sharma General Store", Email: demoEmail, Secret: demoSecret})
	if errors.Is(err, shared.ErrEmailTaken) {
		fmt.Println("✓ demo account already present, nothing to do")
		return
	}
	if err != nil {
		log.Fatalf("seed account: %v", err)
	}

	fmt.Println("→ Seeding customers and credit...")
	if err := seedCredit(ctx, svc, acc.ID, cfg.Location()); err != nil {
		log.Fatalf("seed credit: %v", err)
	}

	fmt.Println("→ Seeding inventory and sales...")
	if err := seedInventory(ctx, svc, acc.ID); err != nil {
		log.Fatalf("seed inventory: %v", err)
	}

	fmt.Printf("✓ seeded %s (password %s)\n", demoEmail, demoSecret)
}

func seedCredit(ctx context.Context, svc *app.Services, accountID string, loc *time.Location) error {
	today := time.Now().In(loc)
	people := []struct {
		name, phone string
		amount      float64
		dueInDays   int
	}{
		{"Ravi Kumar", "9876543210", 1200, -4},
		{"Sunita Devi", "9812345678", 450, 0},
		{"Imran Khan", "9898989898", 3000, 2},
		{"Meena Joshi", "9765432109", 800, 12},
	}
	for _, p := range people {
		cust, err := svc.Customers.AddCustomer(ctx, accountID, customers.CreateCustomerRequest{Name: p.name, Phone: p.phone})
		if err != nil {
			return err
		}
		if _, err := svc.Credit.AddEntry(ctx, accountID, credit.CreateEntryRequest{
			CustomerID: cust.ID,
			Amount:     p.amount,
			DueDate:    today.AddDate(0, 0, p.dueInDays),
			Note:       "groceries",
		}); err != nil {
			return err
		}
	}
	return nil
}

func seedInventory(ctx context.Context, svc *app.Services, accountID string) error {
	products := []inventory.CreateProductRequest{
		{Name: "Basmati Rice 5kg", SellingPrice: 520, CostPrice: 430, StockQty: 20, GSTRate: 5},
		{Name: "Sunflower Oil 1L", SellingPrice: 160, CostPrice: 135, StockQty: 30, GSTRate: 5},
		{Name: "Detergent 1kg", SellingPrice: 110, CostPrice: 82, StockQty: 15, GSTRate: 18},
	}
	for i, req := range products {
		prod, err := svc.Inventory.AddProduct(ctx, accountID, req)
		if err != nil {
			return err
		}
		status := inventory.PaymentPaid
		if i == 0 {
			status = inventory.PaymentUnpaid
		}
		if _, err := svc.Inventory.RecordPurchase(ctx, accountID, inventory.RecordPurchaseRequest{
			ProductID:     prod.ID,
			Qty:           10,
			UnitPrice:     req.CostPrice,
			PaymentStatus: status,
		}); err != nil {
			return err
		}
		if _, err := svc.Sales.RecordSale(ctx, accountID, sales.RecordSaleRequest{
			ProductID:   prod.ID,
			Qty:         3,
			PaymentType: sales.PaymentTypes[i%len(sales.PaymentTypes)],
		}); err != nil {
			return err
		}
	}
	_, err := svc.Sales.RecordSale(ctx, accountID, sales.RecordSaleRequest{
		ItemName:    "Loose sugar",
		Qty:         1,
		Subtotal:    90,
		PaymentType: sales.PaymentCash,
	})
	return err
}
