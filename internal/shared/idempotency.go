package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore remembers processed request keys so a resubmitted sale or
// purchase form is not recorded twice.
type IdempotencyStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client *redis.Client, prefix string, retention time.Duration) *IdempotencyStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, prefix: prefix, retention: retention}
}

// CheckAndInsert claims key within module, scoped by account.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, accountID, module, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	if key == "" {
		return nil
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	ok, err := s.client.SetNX(ctx, s.redisKey(accountID, module, key), time.Now().UTC().Format(time.RFC3339), s.retention).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrIdempotencyConflict
	}
	return nil
}

// Delete releases a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, accountID, module, key string) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	return s.client.Del(ctx, s.redisKey(accountID, module, key)).Err()
}

func (s *IdempotencyStore) redisKey(accountID, module, key string) string {
	return s.prefix + "idem:" + module + ":" + accountID + ":" + key
}
