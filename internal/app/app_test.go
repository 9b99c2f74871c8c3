package app_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jacentio/canopy/catalog"
	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/internal/app"
	"github.com/jacentio/canopy/internal/config"
	"github.com/jacentio/canopy/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(driver, path string) *config.Config {
	cfg := &config.Config{Store: store.DefaultConfig()}
	cfg.Store.Driver = driver
	cfg.Store.Path = path
	return cfg
}

func open(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a, err := app.Open(context.Background(), cfg, discard)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(store.DriverMemory, ""))

	if got := len(a.Registry.All()); got != 4 {
		t.Errorf("expected 4 registered schemas, got %d", got)
	}
	if a.Engine.Policy() != hierarchy.LevelCascade {
		t.Errorf("expected cascade policy, got %v", a.Engine.Policy())
	}

	res, err := a.Engine.AddNode(ctx, hierarchy.NodeInput{Name: "Head Office"})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if res.Snapshot.Len() != 1 {
		t.Errorf("expected 1 node, got %d", res.Snapshot.Len())
	}

	dict, err := a.Dictionaries.Create(ctx, catalog.DictionaryInput{Name: "Region"})
	if err != nil {
		t.Fatalf("Create dictionary: %v", err)
	}
	if _, err := a.Contents.Create(ctx, catalog.ContentInput{DictionaryID: dict.ID, Name: "North"}); err != nil {
		t.Fatalf("Create content: %v", err)
	}
	if err := a.Migrate(ctx, time.Second); err != nil {
		t.Errorf("expected Migrate to be a no-op, got %v", err)
	}
}

func TestOpen_LevelPolicy(t *testing.T) {
	cfg := testConfig(store.DriverMemory, "")
	cfg.LevelPolicy = hierarchy.LevelShallow
	a := open(t, cfg)

	if a.Engine.Policy() != hierarchy.LevelShallow {
		t.Errorf("expected shallow policy, got %v", a.Engine.Policy())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := app.Open(context.Background(), testConfig("postgres", ""), discard)
	if err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpen_SQLitePersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(store.DriverSQLite, filepath.Join(t.TempDir(), "canopy.db"))

	first, err := app.Open(ctx, cfg, discard)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	root, err := first.Engine.AddNode(ctx, hierarchy.NodeInput{Name: "Head Office"})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	rootID := root.Node.ID
	if _, err := first.Engine.AddNode(ctx, hierarchy.NodeInput{Name: "Sales", ParentID: &rootID}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}

	second := open(t, cfg)
	snap, err := second.Engine.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 nodes after reopen, got %d", snap.Len())
	}
	children := snap.Children(rootID)
	if len(children) != 1 || children[0].Name != "Sales" || children[0].Level != 1 {
		t.Errorf("expected Sales at level 1 under the root, got %+v", children)
	}
}

func TestOpen_MetricsGathered(t *testing.T) {
	ctx := context.Background()
	a := open(t, testConfig(store.DriverMemory, ""))

	if _, err := a.Applications.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}

	families, err := a.Gatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "canopy_store_operations_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected canopy_store_operations_total to be gathered")
	}
}
