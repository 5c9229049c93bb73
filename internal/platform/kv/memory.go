package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Updates are serialised by a
// single mutex.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get implements Reader.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = clone(value)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, _ []string, fn func(context.Context, Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTxn{store: s, writes: newStaged()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, key := range tx.writes.order {
		s.values[key] = tx.writes.values[key]
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

type memoryTxn struct {
	store  *MemoryStore
	writes *staged
}

func (t *memoryTxn) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.writes.get(key); ok {
		return clone(v), true, nil
	}
	v, ok := t.store.values[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memoryTxn) Set(key string, value []byte) {
	t.writes.put(key, clone(value))
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Store = (*MemoryStore)(nil)
