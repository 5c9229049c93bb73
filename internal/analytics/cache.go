package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

const cacheVersionPrefix = "analytics:version:"

// Cache wraps Redis based caching with a version counter per account. Any
// ledger mutation bumps the account's version, orphaning its cached reports.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) versionKey(accountID string) string {
	return c.prefix + cacheVersionPrefix + accountID
}

// Version returns the account's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, accountID string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := c.versionKey(accountID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the account's current version.
func (c *Cache) BuildKey(ctx context.Context, accountID string, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"analytics", accountID}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx, accountID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:v%d", c.prefix, joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the account's cached reports.
func (c *Cache) Bump(ctx context.Context, accountID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey(accountID)).Err()
}

// Publish implements shared.EventSink so ledger mutations invalidate reports.
func (c *Cache) Publish(ctx context.Context, evt shared.LedgerEvent) error {
	if evt.AccountID == "" {
		return nil
	}
	return c.Bump(ctx, evt.AccountID)
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

var _ shared.EventSink = (*Cache)(nil)
