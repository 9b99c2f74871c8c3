package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Collection wraps a Backend with index validation, error mapping,
// logging and metrics. Domain packages depend on Collection (or on an
// interface it satisfies), never on a concrete backend.
type Collection[T Record] struct {
	backend Backend[T]
	schema  Schema
	logger  *slog.Logger
	metrics *Metrics
}

// CollectionOption configures a Collection.
type CollectionOption func(*collectionOptions)

type collectionOptions struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithLogger sets the logger used to report failed operations.
func WithLogger(logger *slog.Logger) CollectionOption {
	return func(o *collectionOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *Metrics) CollectionOption {
	return func(o *collectionOptions) {
		o.metrics = metrics
	}
}

// NewCollection creates a new Collection over backend.
func NewCollection[T Record](backend Backend[T], schema Schema, opts ...CollectionOption) *Collection[T] {
	o := collectionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Collection[T]{
		backend: backend,
		schema:  schema,
		logger:  o.logger.With("table", schema.Table),
		metrics: o.metrics,
	}
}

// Schema returns the collection schema.
func (c *Collection[T]) Schema() Schema {
	return c.schema
}

// Get retrieves a record by id. A missing record returns ok=false.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	start := time.Now()
	rec, ok, err := c.backend.Get(ctx, id)
	err = c.finish("get", start, err, "id", id)
	return rec, ok, err
}

// GetAll returns every record in the collection, in no particular order.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	recs, err := c.backend.GetAll(ctx)
	err = c.finish("get_all", start, err)
	return recs, err
}

// GetAllByIndex returns the records whose indexed field equals key.
func (c *Collection[T]) GetAllByIndex(ctx context.Context, index string, key IndexKey) ([]T, error) {
	if _, ok := c.schema.Index(index); !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.schema.Table, index)
	}
	start := time.Now()
	recs, err := c.backend.GetAllByIndex(ctx, index, key)
	err = c.finish("get_by_index", start, err, "index", index, "key", key.String())
	return recs, err
}

// Add inserts a new record; ErrDuplicateKey if the id is taken.
func (c *Collection[T]) Add(ctx context.Context, rec T) error {
	start := time.Now()
	return c.finish("add", start, c.backend.Add(ctx, rec), "id", rec.RecordID())
}

// Put inserts or overwrites a record.
func (c *Collection[T]) Put(ctx context.Context, rec T) error {
	start := time.Now()
	return c.finish("put", start, c.backend.Put(ctx, rec), "id", rec.RecordID())
}

// Delete removes a record; missing ids are ignored.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	start := time.Now()
	return c.finish("delete", start, c.backend.Delete(ctx, id), "id", id)
}

// PutBatch upserts recs atomically. An empty batch is a no-op.
func (c *Collection[T]) PutBatch(ctx context.Context, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	start := time.Now()
	return c.finish("put_batch", start, c.backend.PutBatch(ctx, recs), "count", len(recs))
}

// finish records metrics, logs failures and maps backend errors.
func (c *Collection[T]) finish(op string, start time.Time, err error, attrs ...any) error {
	err = mapError(err)
	c.metrics.observe(c.schema.Table, op, start, err)
	if err != nil && !errors.Is(err, ErrDuplicateKey) {
		c.logger.Warn("store operation failed",
			append([]any{"op", op, "error", err}, attrs...)...,
		)
	}
	return err
}

// mapError passes through the store's own sentinels and wraps anything
// else as a storage failure.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrStorage) ||
		errors.Is(err, ErrUnknownIndex) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
