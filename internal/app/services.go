package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/analytics"
	"github.com/odyssey-erp/udharbook/internal/backup"
	"github.com/odyssey-erp/udharbook/internal/credit"
	"github.com/odyssey-erp/udharbook/internal/customers"
	"github.com/odyssey-erp/udharbook/internal/insights"
	"github.com/odyssey-erp/udharbook/internal/inventory"
	"github.com/odyssey-erp/udharbook/internal/observability"
	"github.com/odyssey-erp/udharbook/internal/platform/db"
	"github.com/odyssey-erp/udharbook/internal/platform/kv"
	"github.com/odyssey-erp/udharbook/internal/sales"
	"github.com/odyssey-erp/udharbook/internal/shared"
)

// OpenStore connects the ledger store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *Config, redisClient *redis.Client) (kv.Store, error) {
	switch cfg.StoreDriver {
	case StoreMemory:
		return kv.NewMemoryStore(), nil
	case StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
		if err != nil {
			return nil, err
		}
		store := kv.NewPGStore(pool, cfg.StorePrefix)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case StoreRedis, "":
		if redisClient == nil {
			return nil, fmt.Errorf("store driver %s requires a redis client", StoreRedis)
		}
		return kv.NewRedisStore(redisClient, cfg.StorePrefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Services is the assembled ledger.
type Services struct {
	Accounts       *accounts.Service
	Customers      *customers.Service
	Credit         *credit.Service
	Inventory      *inventory.Service
	Sales          *sales.Service
	Analytics      *analytics.Service
	AnalyticsCache *analytics.Cache
	Insights       *insights.Service
	Backup         *backup.Service
}

// ServiceDeps carries the infrastructure services are built on. Redis is
// optional; without it idempotency keys and the analytics cache are disabled.
type ServiceDeps struct {
	Config  *Config
	Logger  *slog.Logger
	Store   kv.Store
	Redis   *redis.Client
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// NewServices wires every ledger service over one store. Committed events go
// to the analytics cache and the metrics collector.
func NewServices(deps ServiceDeps) *Services {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := cfg.Location()

	var idem *shared.IdempotencyStore
	var cache *analytics.Cache
	if deps.Redis != nil {
		idem = shared.NewIdempotencyStore(deps.Redis, cfg.StorePrefix, 24*time.Hour)
		cache = analytics.NewCache(deps.Redis, cfg.StorePrefix, cfg.AnalyticsCacheTTL)
	}
	events := shared.FanOut{}
	if cache != nil {
		events = append(events, cache)
	}
	if deps.Metrics != nil {
		events = append(events, deps.Metrics)
	}

	accountsSvc := accounts.NewService(accounts.NewRepository(deps.Store), events, logger, accounts.ServiceConfig{
		BcryptCost: cfg.BcryptCost,
		Clock:      clock,
	})
	customersSvc := customers.NewService(customers.NewRepository(deps.Store), events, logger, clock)
	creditSvc := credit.NewService(credit.NewRepository(deps.Store), customersSvc, accountsSvc, events, logger, credit.ServiceConfig{
		Clock:          clock,
		Location:       loc,
		ReminderWindow: cfg.ReminderWindowDays,
	})
	inventorySvc := inventory.NewService(inventory.NewRepository(deps.Store), idem, events, logger, inventory.ServiceConfig{Clock: clock})
	salesSvc := sales.NewService(sales.NewRepository(deps.Store), idem, events, logger, sales.ServiceConfig{Clock: clock})

	analyticsSvc := analytics.NewService(analytics.Sources{
		Sales:     salesSvc,
		Credit:    creditSvc,
		Inventory: inventorySvc,
	}, cache, logger, analytics.ServiceConfig{Location: loc, Clock: clock})

	generator := insights.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, loc, logger)
	insightsSvc := insights.NewService(salesSvc, creditSvc, generator, logger)

	backupSvc := backup.NewService(backup.Sources{
		Accounts:  accountsSvc,
		Customers: customersSvc,
		Credit:    creditSvc,
		Sales:     salesSvc,
		Inventory: inventorySvc,
	}, logger, backup.ServiceConfig{Location: loc, Clock: clock})

	return &Services{
		Accounts:       accountsSvc,
		Customers:      customersSvc,
		Credit:         creditSvc,
		Inventory:      inventorySvc,
		Sales:          salesSvc,
		Analytics:      analyticsSvc,
		AnalyticsCache: cache,
		Insights:       insightsSvc,
		Backup:         backupSvc,
	}
}
