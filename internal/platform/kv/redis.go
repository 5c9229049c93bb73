package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultMaxRetries = 8

// RedisStore persists values in Redis. Multi-key updates WATCH every key the
// caller declares and commit staged writes in a single MULTI/EXEC.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxRetries int
}

// NewRedisStore wraps an existing client. prefix namespaces every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, maxRetries: defaultMaxRetries}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Get implements Reader.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return redisGet(ctx, s.client, s.key(key))
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("kv/redis: set %s: %w", key, err)
	}
	return nil
}

// Update implements Store using optimistic locking. It retries when a watched
// key changes underneath and gives up with ErrConflict.
func (s *RedisStore) Update(ctx context.Context, keys []string, fn func(context.Context, Txn) error) error {
	watched := make([]string, 0, len(keys))
	for _, k := range keys {
		watched = append(watched, s.key(k))
	}
	txf := func(rtx *redis.Tx) error {
		tx := &redisTxn{store: s, rtx: rtx, writes: newStaged()}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if len(tx.writes.order) == 0 {
			return nil
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range tx.writes.order {
				pipe.Set(ctx, s.key(k), tx.writes.values[k], 0)
			}
			return nil
		})
		return err
	}
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, watched...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type redisTxn struct {
	store  *RedisStore
	rtx    *redis.Tx
	writes *staged
}

func (t *redisTxn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.writes.get(key); ok {
		return clone(v), true, nil
	}
	return redisGet(ctx, t.rtx, t.store.key(key))
}

func (t *redisTxn) Set(key string, value []byte) {
	t.writes.put(key, clone(value))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func redisGet(ctx context.Context, c getter, key string) ([]byte, bool, error) {
	v, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv/redis: get %s: %w", key, err)
	}
	return v, true, nil
}

var _ Store = (*RedisStore)(nil)
