package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Entity is a record stored inside an owner-partitioned collection.
type Entity interface {
	EntityID() string
	OwnerID() string
}

// Collection stores a slice of T as one JSON document under Key. Every
// read helper filters by owner so callers cannot skip the partition.
type Collection[T Entity] struct {
	Key string
}

// NewCollection binds a collection to its store key.
func NewCollection[T Entity](key string) Collection[T] {
	return Collection[T]{Key: key}
}

// All loads every record regardless of owner, in insertion order.
func (c Collection[T]) All(ctx context.Context, r Reader) ([]T, error) {
	raw, ok, err := r.Get(ctx, c.Key)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("kv: decode %s: %w", c.Key, err)
	}
	return items, nil
}

// Owned returns the records belonging to owner.
func (c Collection[T]) Owned(ctx context.Context, r Reader, owner string) ([]T, error) {
	items, err := c.All(ctx, r)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.OwnerID() == owner {
			out = append(out, item)
		}
	}
	return out, nil
}

// Find returns the record with id owned by owner, or ErrNotFound.
func (c Collection[T]) Find(ctx context.Context, r Reader, owner, id string) (T, error) {
	var zero T
	items, err := c.All(ctx, r)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.EntityID() == id && item.OwnerID() == owner {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

// Append stages item at the end of the collection.
func (c Collection[T]) Append(ctx context.Context, tx Txn, item T) error {
	items, err := c.All(ctx, tx)
	if err != nil {
		return err
	}
	return c.Save(tx, append(items, item))
}

// Replace stages item in place of the stored record with the same id and
// owner. It returns ErrNotFound when no such record exists.
func (c Collection[T]) Replace(ctx context.Context, tx Txn, item T) error {
	items, err := c.All(ctx, tx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].EntityID() == item.EntityID() && items[i].OwnerID() == item.OwnerID() {
			items[i] = item
			return c.Save(tx, items)
		}
	}
	return ErrNotFound
}

// Save stages the whole collection.
func (c Collection[T]) Save(tx Txn, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", c.Key, err)
	}
	tx.Set(c.Key, raw)
	return nil
}
