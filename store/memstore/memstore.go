// Package memstore provides an in-process store backend.
package memstore

import (
	"context"
	"sync"

	"github.com/jacentio/canopy/store"
)

// Backend keeps records in a map guarded by a mutex.
type Backend[T store.Record] struct {
	mu      sync.RWMutex
	schema  store.Schema
	records map[string]T
}

// New creates an empty in-memory backend for schema.
func New[T store.Record](schema store.Schema) *Backend[T] {
	return &Backend[T]{
		schema:  schema,
		records: make(map[string]T),
	}
}

func (b *Backend[T]) Get(ctx context.Context, id string) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[id]
	return rec, ok, nil
}

func (b *Backend[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]T, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, rec)
	}
	return out, nil
}

func (b *Backend[T]) GetAllByIndex(ctx context.Context, index string, key store.IndexKey) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := b.schema.Index(index); !ok {
		return nil, store.ErrUnknownIndex
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []T
	for _, rec := range b.records {
		indexed, ok := any(rec).(store.Indexed)
		if !ok {
			continue
		}
		if indexed.IndexValue(index) == key {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (b *Backend[T]) Add(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.records[rec.RecordID()]; ok {
		return store.ErrDuplicateKey
	}
	b.records[rec.RecordID()] = rec
	return nil
}

func (b *Backend[T]) Put(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.RecordID()] = rec
	return nil
}

func (b *Backend[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, id)
	return nil
}

func (b *Backend[T]) PutBatch(ctx context.Context, recs []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range recs {
		b.records[rec.RecordID()] = rec
	}
	return nil
}

// Len returns the number of stored records.
func (b *Backend[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
