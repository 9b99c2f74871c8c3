// Package sqlstore provides a durable local store backend on SQLite via GORM.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/jacentio/canopy/store"
)

// keyColumn is the primary key column of every table.
const keyColumn = "id"

// Open opens (or creates) the SQLite database at path.
// Use ":memory:" for a throwaway in-process database.
func Open(path string, logger gormLogger.Interface) (*gorm.DB, error) {
	cfg := gorm.Config{
		Logger:         logger,
		TranslateError: true,
	}
	db, err := gorm.Open(sqlite.Open(path), &cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Backend stores one collection in one SQLite table.
// T must be a GORM model struct whose primary key column is "id".
type Backend[T store.Record] struct {
	db     *gorm.DB
	schema store.Schema
	table  string
}

// New creates a backend for schema, migrating its table.
func New[T store.Record](db *gorm.DB, schema store.Schema, cfg store.Config) (*Backend[T], error) {
	b := &Backend[T]{
		db:     db,
		schema: schema,
		table:  cfg.TableName(schema),
	}
	if err := db.Table(b.table).AutoMigrate(new(T)); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", b.table, err)
	}
	return b, nil
}

// tx scopes a session to this backend's table.
func (b *Backend[T]) tx(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx).Table(b.table)
}

func (b *Backend[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var rec T
	err := b.tx(ctx).
		Where(clause.Eq{Column: clause.Column{Name: keyColumn}, Value: id}).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

func (b *Backend[T]) GetAll(ctx context.Context) ([]T, error) {
	var recs []T
	if err := b.tx(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (b *Backend[T]) GetAllByIndex(ctx context.Context, index string, key store.IndexKey) ([]T, error) {
	idx, ok := b.schema.Index(index)
	if !ok {
		return nil, store.ErrUnknownIndex
	}
	var value any
	if key.Valid {
		value = key.Value
	}
	// clause.Eq renders IS NULL for a nil value.
	var recs []T
	err := b.tx(ctx).
		Where(clause.Eq{Column: clause.Column{Name: idx.Attr}, Value: value}).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (b *Backend[T]) Add(ctx context.Context, rec T) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Table(b.table).
			Where(clause.Eq{Column: clause.Column{Name: keyColumn}, Value: rec.RecordID()}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return store.ErrDuplicateKey
		}
		err = tx.Table(b.table).Create(&rec).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrDuplicateKey
		}
		return err
	})
}

func (b *Backend[T]) Put(ctx context.Context, rec T) error {
	return b.upsert(b.tx(ctx), rec)
}

func (b *Backend[T]) Delete(ctx context.Context, id string) error {
	return b.tx(ctx).
		Where(clause.Eq{Column: clause.Column{Name: keyColumn}, Value: id}).
		Delete(new(T)).Error
}

func (b *Backend[T]) PutBatch(ctx context.Context, recs []T) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			if err := b.upsert(tx.Table(b.table), rec); err != nil {
				return fmt.Errorf("put %s: %w", rec.RecordID(), err)
			}
		}
		return nil
	})
}

func (b *Backend[T]) upsert(tx *gorm.DB, rec T) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: keyColumn}},
		UpdateAll: true,
	}).Create(&rec).Error
}
