package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/canopy/store"
)

// NodeStore is the persistence contract the engine needs.
// *store.Collection[Organization] satisfies it.
type NodeStore interface {
	Get(ctx context.Context, id string) (Organization, bool, error)
	GetAll(ctx context.Context) ([]Organization, error)
	GetAllByIndex(ctx context.Context, index string, key store.IndexKey) ([]Organization, error)
	Add(ctx context.Context, rec Organization) error
	Put(ctx context.Context, rec Organization) error
	Delete(ctx context.Context, id string) error
	PutBatch(ctx context.Context, recs []Organization) error
}

// LevelPolicy selects how far structural changes propagate level updates.
type LevelPolicy int

const (
	// LevelCascade re-derives the level of every node in the affected
	// subtree after a delete or transfer.
	LevelCascade LevelPolicy = iota

	// LevelShallow only updates the directly affected records: promoted
	// children on delete, the moved node on transfer. Deeper descendants
	// keep stale levels until Repair runs.
	LevelShallow
)

func (p LevelPolicy) String() string {
	switch p {
	case LevelCascade:
		return "cascade"
	case LevelShallow:
		return "shallow"
	}
	return fmt.Sprintf("LevelPolicy(%d)", int(p))
}

// ParseLevelPolicy parses "cascade" or "shallow".
func ParseLevelPolicy(s string) (LevelPolicy, error) {
	switch s {
	case "", "cascade":
		return LevelCascade, nil
	case "shallow":
		return LevelShallow, nil
	}
	return 0, fmt.Errorf("unknown level policy %q", s)
}

// Direction is a sibling move direction.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Result is the outcome of a mutation: the subject node, the records that
// were written, and the forest reloaded after the write.
type Result struct {
	Node     Organization
	Changed  []Organization
	Snapshot *Snapshot
}

// Engine maintains the organization forest invariants on top of a NodeStore.
type Engine struct {
	nodes  NodeStore
	policy LevelPolicy
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator sets the id generator for new nodes.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// WithLevelPolicy sets the level propagation policy.
func WithLevelPolicy(policy LevelPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// NewEngine creates an engine over nodes.
func NewEngine(nodes NodeStore, opts ...Option) *Engine {
	e := &Engine{
		nodes:  nodes,
		policy: LevelCascade,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured level policy.
func (e *Engine) Policy() LevelPolicy {
	return e.policy
}

// Snapshot loads the full forest.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	all, err := e.nodes.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	return NewSnapshot(all), nil
}

// finish reloads the forest after a write.
func (e *Engine) finish(ctx context.Context, node Organization, changed []Organization) (Result, error) {
	res := Result{Node: node, Changed: changed}
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return res, err
	}
	res.Snapshot = snap
	return res, nil
}

// AddNode creates a node as the last child of in.ParentID, or as the last
// root when ParentID is nil.
func (e *Engine) AddNode(ctx context.Context, in NodeInput) (Result, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	// Sibling groups come from the full scan. Index lookups may lag
	// behind recent writes on some backends.
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}

	level, parentID := 0, ""
	if in.ParentID != nil {
		parent, ok := snap.Node(*in.ParentID)
		if !ok {
			return Result{}, fmt.Errorf("%w: parent %s", ErrNotFound, *in.ParentID)
		}
		level, parentID = parent.Level+1, parent.ID
	}
	siblings := snap.Children(parentID)

	node := Organization{
		ID:          e.newID(),
		Name:        in.Name,
		Description: in.Description,
		ParentID:    cloneRef(in.ParentID),
		Level:       level,
		Order:       len(siblings),
		CreatedAt:   e.now().UTC(),
	}
	if err := e.nodes.Add(ctx, node); err != nil {
		return Result{}, fmt.Errorf("add organization: %w", err)
	}

	e.logger.Info("organization added",
		"id", node.ID,
		"parent", node.Parent(),
		"level", node.Level,
		"order", node.Order,
	)

	return e.finish(ctx, node, []Organization{node})
}

// EditNode updates a node's name and description. Structural fields are
// never touched; in.ParentID is ignored.
func (e *Engine) EditNode(ctx context.Context, id string, in NodeInput) (Result, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	node, err := e.get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	node.Name = in.Name
	node.Description = in.Description

	if err := e.nodes.Put(ctx, node); err != nil {
		return Result{}, fmt.Errorf("update organization: %w", err)
	}

	e.logger.Info("organization edited", "id", node.ID)

	return e.finish(ctx, node, []Organization{node})
}

// DeleteNode removes a node and promotes its direct children to the node's
// parent. The promoted children take the deleted node's place among its
// siblings, and the sibling group is renumbered.
func (e *Engine) DeleteNode(ctx context.Context, id string) (Result, error) {
	node, err := e.get(ctx, id)
	if err != nil {
		return Result{}, err
	}

	snap, err := e.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	children := snap.Children(id)
	group := snap.Children(node.Parent())
	pos := len(group)
	for i, s := range group {
		if s.ID == id {
			pos = i
			break
		}
	}
	if pos < len(group) {
		group = append(group[:pos:pos], group[pos+1:]...)
	}

	cs := newChangeset()
	cs.track(children...)
	cs.track(group...)

	promoted := make([]Organization, len(children))
	for i, c := range children {
		c.ParentID = cloneRef(node.ParentID)
		c.Level = node.Level
		promoted[i] = c
	}

	merged := make([]Organization, 0, len(group)+len(promoted))
	merged = append(merged, group[:pos]...)
	merged = append(merged, promoted...)
	merged = append(merged, group[pos:]...)
	for i, n := range merged {
		n.Order = i
		cs.set(n)
	}

	if e.policy == LevelCascade {
		for _, c := range promoted {
			relevel(snap, c.ID, c.Level, cs)
		}
	}

	changed := cs.list()
	if err := e.nodes.PutBatch(ctx, changed); err != nil {
		return Result{}, fmt.Errorf("promote children: %w", err)
	}
	// A failed Delete leaves the node sharing its order with the first
	// promoted child. Violations reports it and Repair renumbers the group.
	if err := e.nodes.Delete(ctx, id); err != nil {
		return Result{}, fmt.Errorf("delete organization: %w", err)
	}

	e.logger.Info("organization deleted",
		"id", id,
		"promoted", len(promoted),
		"updated", len(changed),
	)

	return e.finish(ctx, node, changed)
}

// MoveSibling swaps a node with its neighbour above (Up) or below (Down).
// A node already at the boundary is left untouched and nothing is written.
func (e *Engine) MoveSibling(ctx context.Context, id string, dir Direction) (Result, error) {
	node, err := e.get(ctx, id)
	if err != nil {
		return Result{}, err
	}

	snap, err := e.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	siblings := snap.Children(node.Parent())

	want := node.Order + 1
	if dir == Up {
		want = node.Order - 1
	}

	var neighbour *Organization
	for i := range siblings {
		if siblings[i].ID != id && siblings[i].Order == want {
			neighbour = &siblings[i]
			break
		}
	}
	if neighbour == nil {
		e.logger.Debug("organization already at boundary", "id", id, "direction", dir)
		return e.finish(ctx, node, nil)
	}

	a, b := node, *neighbour
	a.Order, b.Order = b.Order, a.Order
	changed := []Organization{a, b}
	if err := e.nodes.PutBatch(ctx, changed); err != nil {
		return Result{}, fmt.Errorf("swap order: %w", err)
	}

	e.logger.Info("organization moved",
		"id", id,
		"direction", dir,
		"order", a.Order,
	)

	return e.finish(ctx, a, changed)
}

// TransferSubtree reattaches sourceID, with its subtree, as the last child
// of targetID. Transfers onto the source itself or into its own subtree are
// refused with ErrCycle before anything is written.
func (e *Engine) TransferSubtree(ctx context.Context, sourceID, targetID string) (Result, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}

	source, ok := snap.Node(sourceID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	target, ok := snap.Node(targetID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}
	if sourceID == targetID {
		return Result{}, fmt.Errorf("%w: %s onto itself", ErrCycle, sourceID)
	}
	inside, err := snap.IsDescendant(sourceID, targetID)
	if err != nil {
		return Result{}, err
	}
	if inside {
		return Result{}, fmt.Errorf("%w: %s is below %s", ErrCycle, targetID, sourceID)
	}

	if source.Parent() == targetID {
		return Result{Node: source, Snapshot: snap}, nil
	}

	cs := newChangeset()

	remaining := snap.Children(source.Parent())
	cs.track(remaining...)
	i := 0
	for _, n := range remaining {
		if n.ID == sourceID {
			continue
		}
		n.Order = i
		cs.set(n)
		i++
	}

	moved := source
	moved.ParentID = parentRef(targetID)
	moved.Level = target.Level + 1
	moved.Order = len(snap.Children(targetID))
	cs.set(moved)

	if e.policy == LevelCascade {
		relevel(snap, moved.ID, moved.Level, cs)
	}

	changed := cs.list()
	if err := e.nodes.PutBatch(ctx, changed); err != nil {
		return Result{}, fmt.Errorf("transfer organization: %w", err)
	}

	e.logger.Info("organization transferred",
		"id", sourceID,
		"from", source.Parent(),
		"to", targetID,
		"level", moved.Level,
		"updated", len(changed),
	)

	return e.finish(ctx, moved, changed)
}

// Relevel re-derives the levels of every descendant of id from id's stored
// level. It is used after an out-of-band structural change.
func (e *Engine) Relevel(ctx context.Context, id string) (Result, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	node, ok := snap.Node(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	cs := newChangeset()
	relevel(snap, id, node.Level, cs)
	changed := cs.list()
	if len(changed) == 0 {
		return Result{Node: node, Snapshot: snap}, nil
	}
	if err := e.nodes.PutBatch(ctx, changed); err != nil {
		return Result{}, fmt.Errorf("relevel subtree: %w", err)
	}

	e.logger.Info("subtree relevelled", "id", id, "updated", len(changed))

	return e.finish(ctx, node, changed)
}

// ChildrenStale reports whether any direct child of id has a level other
// than level+1. It reads through the parent index and never writes, so a
// lagging index can only cause a needless Relevel.
func (e *Engine) ChildrenStale(ctx context.Context, id string, level int) (bool, error) {
	children, err := e.nodes.GetAllByIndex(ctx, IndexParent, store.Key(id))
	if err != nil {
		return false, fmt.Errorf("list children of %s: %w", id, err)
	}
	for _, c := range children {
		if c.Level != level+1 {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) get(ctx context.Context, id string) (Organization, error) {
	node, ok, err := e.nodes.Get(ctx, id)
	if err != nil {
		return Organization{}, fmt.Errorf("get organization %s: %w", id, err)
	}
	if !ok {
		return Organization{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return node, nil
}

// relevel sets level(d) = level(parent(d)) + 1 for every descendant d of
// rootID, breadth-first, starting from rootLevel.
func relevel(snap *Snapshot, rootID string, rootLevel int, cs *changeset) {
	levels := map[string]int{rootID: rootLevel}
	for _, d := range snap.Descendants(rootID) {
		lvl := levels[d.Parent()] + 1
		levels[d.ID] = lvl
		cs.track(d)
		cur := cs.current(d)
		cur.Level = lvl
		cs.set(cur)
	}
}

func cloneRef(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
