// Package storetest holds the behavioural contract every store backend
// must satisfy. Backend packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/canopy/store"
)

// Item is the record type used by the contract.
type Item struct {
	ID        string    `gorm:"primaryKey" dynamodbav:"id"`
	ParentID  *string   `gorm:"index" dynamodbav:"parent_id,omitempty"`
	Rank      int       `gorm:"index" dynamodbav:"rank"`
	Title     string    `dynamodbav:"title"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

func (i Item) RecordID() string { return i.ID }

func (i Item) IndexValue(index string) store.IndexKey {
	switch index {
	case "parent":
		return store.OptionalKey(i.ParentID)
	case "rank":
		return store.IntKey(i.Rank)
	}
	return store.NullKey
}

// Schema declares the contract collection.
var Schema = store.Schema{
	Table: "items",
	Indexes: []store.Index{
		{Name: "parent", Attr: "parent_id"},
		{Name: "rank", Attr: "rank"},
	},
}

var created = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func item(id, parent string, rank int) Item {
	it := Item{ID: id, Rank: rank, Title: "item " + id, CreatedAt: created}
	if parent != "" {
		it.ParentID = &parent
	}
	return it
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	slices.Sort(out)
	return out
}

// Run exercises newBackend against the contract. newBackend must return an
// empty backend for Schema on each call.
func Run(t *testing.T, newBackend func(t *testing.T) store.Backend[Item]) {
	t.Run("GetMissing", func(t *testing.T) {
		b := newBackend(t)
		_, ok, err := b.Get(context.Background(), "nope")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok {
			t.Error("expected missing record to report ok=false")
		}
	})

	t.Run("AddGet", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		want := item("a", "root", 3)
		if err := b.Add(ctx, want); err != nil {
			t.Fatalf("Add: %v", err)
		}
		got, ok, err := b.Get(ctx, "a")
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("record (-want +got):\n%s", diff)
		}
	})

	t.Run("AddDuplicate", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		if err := b.Add(ctx, item("a", "", 0)); err != nil {
			t.Fatalf("Add: %v", err)
		}
		err := b.Add(ctx, item("a", "", 1))
		if !errors.Is(err, store.ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
		got, _, _ := b.Get(ctx, "a")
		if got.Rank != 0 {
			t.Error("failed Add must not overwrite")
		}
	})

	t.Run("PutUpserts", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		it := item("a", "", 0)
		if err := b.Put(ctx, it); err != nil {
			t.Fatalf("Put (insert): %v", err)
		}
		it.Title = "renamed"
		it.ParentID = nil
		if err := b.Put(ctx, it); err != nil {
			t.Fatalf("Put (update): %v", err)
		}
		got, _, _ := b.Get(ctx, "a")
		if got.Title != "renamed" {
			t.Errorf("expected title 'renamed', got %q", got.Title)
		}
		all, _ := b.GetAll(ctx)
		if len(all) != 1 {
			t.Errorf("expected 1 record, got %d", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		b.Add(ctx, item("a", "", 0))
		if err := b.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok, _ := b.Get(ctx, "a"); ok {
			t.Error("expected record to be deleted")
		}
		if err := b.Delete(ctx, "a"); err != nil {
			t.Errorf("deleting a missing id must be a no-op, got %v", err)
		}
	})

	t.Run("GetAllByIndex", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		batch := []Item{
			item("r1", "", 0),
			item("r2", "", 1),
			item("c1", "r1", 0),
			item("c2", "r1", 1),
			item("c3", "r2", 0),
		}
		if err := b.PutBatch(ctx, batch); err != nil {
			t.Fatalf("PutBatch: %v", err)
		}

		tests := []struct {
			name  string
			index string
			key   store.IndexKey
			want  []string
		}{
			{name: "null parent", index: "parent", key: store.NullKey, want: []string{"r1", "r2"}},
			{name: "parent r1", index: "parent", key: store.Key("r1"), want: []string{"c1", "c2"}},
			{name: "parent r2", index: "parent", key: store.Key("r2"), want: []string{"c3"}},
			{name: "unknown parent", index: "parent", key: store.Key("zz"), want: []string{}},
			{name: "rank 0", index: "rank", key: store.IntKey(0), want: []string{"c1", "c3", "r1"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := b.GetAllByIndex(ctx, tt.index, tt.key)
				if err != nil {
					t.Fatalf("GetAllByIndex: %v", err)
				}
				if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
					t.Errorf("ids (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("IndexFollowsUpdates", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		it := item("a", "p1", 0)
		b.Put(ctx, it)
		it.ParentID = nil
		b.Put(ctx, it)

		old, _ := b.GetAllByIndex(ctx, "parent", store.Key("p1"))
		if len(old) != 0 {
			t.Errorf("expected no records under p1, got %v", ids(old))
		}
		roots, _ := b.GetAllByIndex(ctx, "parent", store.NullKey)
		if diff := cmp.Diff([]string{"a"}, ids(roots)); diff != "" {
			t.Errorf("roots (-want +got):\n%s", diff)
		}
	})

	t.Run("UnknownIndex", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.GetAllByIndex(context.Background(), "color", store.Key("red"))
		if !errors.Is(err, store.ErrUnknownIndex) {
			t.Errorf("expected ErrUnknownIndex, got %v", err)
		}
	})

	t.Run("PutBatch", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		b.Add(ctx, item("a", "", 0))

		batch := make([]Item, 0, 20)
		for i := 0; i < 20; i++ {
			batch = append(batch, item(fmt.Sprintf("n%02d", i), "a", i))
		}
		batch = append(batch, item("a", "", 9))
		if err := b.PutBatch(ctx, batch); err != nil {
			t.Fatalf("PutBatch: %v", err)
		}

		all, _ := b.GetAll(ctx)
		if len(all) != 21 {
			t.Errorf("expected 21 records, got %d", len(all))
		}
		a, _, _ := b.Get(ctx, "a")
		if a.Rank != 9 {
			t.Errorf("expected batch to overwrite a, got rank %d", a.Rank)
		}
	})
}
