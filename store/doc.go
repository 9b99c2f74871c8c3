// Package store provides the persistence layer for canopy's entity collections.
//
// Every entity kind (organization nodes, dictionaries, dictionary contents,
// applications) lives in its own collection keyed by record id, with zero or
// more secondary indexes used for foreign-key lookups such as "all nodes
// whose parent is X".
//
// # Key Features
//
//   - Uniform get / get-all / index lookup / add / put / delete operations
//   - Atomic multi-record batches ([Backend.PutBatch])
//   - Null-aware secondary indexes ([NullKey] matches records with no value)
//   - Pluggable backends: in-memory, SQLite (GORM) and DynamoDB
//   - Prometheus metrics and slog logging on every operation
//
// # Record Interfaces
//
// All stored types implement [Record]:
//
//	type Record interface {
//	    RecordID() string
//	}
//
// Records that participate in secondary indexes also implement [Indexed]:
//
//	type Indexed interface {
//	    IndexValue(index string) IndexKey
//	}
//
// # Collections
//
// Backends are never used directly by the domain packages. Wrap them in a
// [Collection], which validates index names, maps backend failures to
// [ErrStorage] and records metrics:
//
//	backend, _ := sqlstore.New[hierarchy.Organization](db, hierarchy.Schema, cfg)
//	nodes := store.NewCollection[hierarchy.Organization](backend, hierarchy.Schema,
//	    store.WithLogger(logger),
//	    store.WithMetrics(metrics),
//	)
//
// # Errors
//
//   - [ErrDuplicateKey] - a record with the same id already exists (Add)
//   - [ErrStorage] - the underlying I/O failed
//   - [ErrUnknownIndex] - lookup on an index the schema does not declare
//   - [ErrBatchTooLarge] - the backend cannot apply the batch atomically
package store
