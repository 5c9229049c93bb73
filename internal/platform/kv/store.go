// Package kv provides the durable key/value store backing every ledger
// collection. Values are JSON documents; a missing key reads as empty.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by typed lookups when no record matches.
	ErrNotFound = errors.New("kv: record not found")
	// ErrConflict is returned when an atomic update keeps losing races.
	ErrConflict = errors.New("kv: concurrent update conflict")
)

// Reader loads a key into dest. It reports false when the key is absent,
// leaving dest untouched so callers keep their default value.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// Txn is the view handed to an Update callback. Reads observe staged writes;
// staged writes become visible together when the callback returns nil.
type Txn interface {
	Reader
	Set(key string, value []byte)
}

// Store is the persistent store contract: get/set per key plus an atomic
// multi-key update used by operations with several side effects.
type Store interface {
	Reader
	Set(ctx context.Context, key string, value []byte) error
	// Update runs fn with a transactional view over keys. Nothing fn stages is
	// written if fn returns an error.
	Update(ctx context.Context, keys []string, fn func(ctx context.Context, tx Txn) error) error
	Close() error
}

type staged struct {
	order  []string
	values map[string][]byte
}

func newStaged() *staged {
	return &staged{values: make(map[string][]byte)}
}

func (s *staged) put(key string, value []byte) {
	if _, ok := s.values[key]; !ok {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}

func (s *staged) get(key string) ([]byte, bool) {
	v, ok := s.values[key]
	return v, ok
}
