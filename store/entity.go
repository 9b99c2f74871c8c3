package store

import (
	"context"
	"strconv"
)

// Record is the base interface for all storable types.
type Record interface {
	// RecordID returns the primary key of the record.
	RecordID() string
}

// Indexed is implemented by records that participate in secondary indexes.
type Indexed interface {
	// IndexValue returns the value of the record under the named index.
	// Returns NullKey when the indexed field is null.
	IndexValue(index string) IndexKey
}

// IndexKey is a secondary index value. The zero value is the null key.
type IndexKey struct {
	Value string
	Valid bool
}

// NullKey matches records whose indexed field is null.
var NullKey = IndexKey{}

// Key returns a non-null index key.
func Key(v string) IndexKey {
	return IndexKey{Value: v, Valid: true}
}

// IntKey returns a non-null index key for an integer field.
func IntKey(n int) IndexKey {
	return Key(strconv.Itoa(n))
}

// OptionalKey returns NullKey for a nil pointer and Key(*v) otherwise.
func OptionalKey(v *string) IndexKey {
	if v == nil {
		return NullKey
	}
	return Key(*v)
}

// String returns the key value, or "<null>" for the null key.
func (k IndexKey) String() string {
	if !k.Valid {
		return "<null>"
	}
	return k.Value
}

// Index declares a secondary index on a collection.
type Index struct {
	// Name is the index name used in lookups (e.g., "parentId").
	Name string

	// Attr is the stored column/attribute holding the value (e.g., "parent_id").
	Attr string
}

// Schema describes one collection.
type Schema struct {
	// Table is the collection name (table name in SQL/DynamoDB backends).
	Table string

	// Indexes are the secondary indexes declared for the collection.
	Indexes []Index
}

// Index returns the named index.
func (s Schema) Index(name string) (Index, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

// Backend is the storage contract implemented by every driver.
//
// All operations block until the underlying I/O completes. Implementations
// serialize their own internal access; callers are assumed to be a single
// logical writer.
type Backend[T Record] interface {
	// Get returns the record with the given id. A missing record is reported
	// as ok=false, not as an error.
	Get(ctx context.Context, id string) (rec T, ok bool, err error)

	// GetAll returns every record. No order is guaranteed.
	GetAll(ctx context.Context) ([]T, error)

	// GetAllByIndex returns all records whose indexed field equals key.
	GetAllByIndex(ctx context.Context, index string, key IndexKey) ([]T, error)

	// Add inserts a record, failing with ErrDuplicateKey if the id exists.
	Add(ctx context.Context, rec T) error

	// Put inserts or overwrites a record.
	Put(ctx context.Context, rec T) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// PutBatch upserts all records as one atomic unit.
	PutBatch(ctx context.Context, recs []T) error
}

