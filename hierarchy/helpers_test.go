package hierarchy_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/store"
	"github.com/jacentio/canopy/store/memstore"
)

// recordingStore counts writes reaching the backend.
type recordingStore struct {
	*store.Collection[hierarchy.Organization]

	mu      sync.Mutex
	writes  int
	batches [][]hierarchy.Organization
}

func (r *recordingStore) Add(ctx context.Context, rec hierarchy.Organization) error {
	r.count()
	return r.Collection.Add(ctx, rec)
}

func (r *recordingStore) Put(ctx context.Context, rec hierarchy.Organization) error {
	r.count()
	return r.Collection.Put(ctx, rec)
}

func (r *recordingStore) Delete(ctx context.Context, id string) error {
	r.count()
	return r.Collection.Delete(ctx, id)
}

func (r *recordingStore) PutBatch(ctx context.Context, recs []hierarchy.Organization) error {
	r.mu.Lock()
	r.batches = append(r.batches, append([]hierarchy.Organization(nil), recs...))
	r.mu.Unlock()
	r.count()
	return r.Collection.PutBatch(ctx, recs)
}

func (r *recordingStore) count() {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
}

func (r *recordingStore) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *recordingStore) LastBatch() []hierarchy.Organization {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return nil
	}
	return r.batches[len(r.batches)-1]
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestEngine returns an engine over an in-memory store with sequential
// ids (n1, n2, ...) and a clock that ticks one second per node.
func newTestEngine(t *testing.T, opts ...hierarchy.Option) (*hierarchy.Engine, *recordingStore) {
	t.Helper()

	backend := memstore.New[hierarchy.Organization](hierarchy.Schema)
	nodes := &recordingStore{
		Collection: store.NewCollection[hierarchy.Organization](backend, hierarchy.Schema, store.WithLogger(discard)),
	}

	var seq int
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts = append([]hierarchy.Option{
		hierarchy.WithLogger(discard),
		hierarchy.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("n%d", seq)
		}),
		hierarchy.WithClock(func() time.Time {
			return base.Add(time.Duration(seq) * time.Second)
		}),
	}, opts...)

	return hierarchy.NewEngine(nodes, opts...), nodes
}

func add(t *testing.T, e *hierarchy.Engine, name string, parent string) hierarchy.Organization {
	t.Helper()
	in := hierarchy.NodeInput{Name: name}
	if parent != "" {
		in.ParentID = &parent
	}
	res, err := e.AddNode(context.Background(), in)
	if err != nil {
		t.Fatalf("AddNode(%s): %v", name, err)
	}
	return res.Node
}

func node(t *testing.T, e *hierarchy.Engine, id string) hierarchy.Organization {
	t.Helper()
	snap, err := e.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	n, ok := snap.Node(id)
	if !ok {
		t.Fatalf("node %s not found", id)
	}
	return n
}

// shape is a compact view of a node for cmp.Diff.
type shape struct {
	Parent string
	Level  int
	Order  int
}

func shapes(snap *hierarchy.Snapshot) map[string]shape {
	out := make(map[string]shape)
	snap.Walk(func(n hierarchy.Organization, _ int) bool {
		out[n.Name] = shape{Parent: parentName(snap, n), Level: n.Level, Order: n.Order}
		return true
	})
	return out
}

func parentName(snap *hierarchy.Snapshot, n hierarchy.Organization) string {
	if n.IsRoot() {
		return ""
	}
	p, ok := snap.Node(n.Parent())
	if !ok {
		return "?" + n.Parent()
	}
	return p.Name
}

func assertConsistent(t *testing.T, snap *hierarchy.Snapshot) {
	t.Helper()
	if v := snap.Violations(); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}
}

func ptr(s string) *string { return &s }
