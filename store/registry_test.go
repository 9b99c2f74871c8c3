package store_test

import (
	"testing"

	"github.com/jacentio/canopy/store"
)

func TestNewRegistry(t *testing.T) {
	r := store.NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if len(r.All()) != 0 {
		t.Errorf("expected empty registry, got %d schemas", len(r.All()))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := store.NewRegistry()

	r.Register(store.Schema{
		Table:   "organizations",
		Indexes: []store.Index{{Name: "parentId", Attr: "parent_id"}},
	})
	r.Register(store.Schema{Table: "applications"})

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(all))
	}
	if all[0].Table != "organizations" || all[1].Table != "applications" {
		t.Errorf("expected registration order, got %q, %q", all[0].Table, all[1].Table)
	}

	s, ok := r.Schema("organizations")
	if !ok {
		t.Fatal("expected organizations schema")
	}
	if len(s.Indexes) != 1 {
		t.Errorf("expected 1 index, got %d", len(s.Indexes))
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := store.NewRegistry()

	r.Register(store.Schema{Table: "dictionaries"})
	r.Register(store.Schema{
		Table:   "dictionaries",
		Indexes: []store.Index{{Name: "name", Attr: "name"}},
	})

	if len(r.All()) != 1 {
		t.Errorf("expected 1 schema after re-register, got %d", len(r.All()))
	}
	if !r.HasIndex("dictionaries", "name") {
		t.Error("expected the later declaration to win")
	}
}

func TestRegistry_HasIndex(t *testing.T) {
	r := store.NewRegistry()
	r.Register(store.Schema{
		Table: "organizations",
		Indexes: []store.Index{
			{Name: "parentId", Attr: "parent_id"},
			{Name: "level", Attr: "level"},
		},
	})

	tests := []struct {
		table string
		index string
		want  bool
	}{
		{table: "organizations", index: "parentId", want: true},
		{table: "organizations", index: "level", want: true},
		{table: "organizations", index: "name", want: false},
		{table: "unknown", index: "parentId", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.table+"."+tt.index, func(t *testing.T) {
			if got := r.HasIndex(tt.table, tt.index); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRegistry_UnknownSchema(t *testing.T) {
	r := store.NewRegistry()
	if _, ok := r.Schema("missing"); ok {
		t.Error("expected unknown table to be absent")
	}
}
