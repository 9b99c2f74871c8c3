package hierarchy

import (
	"context"
	"fmt"
	"slices"
)

// Repair rewrites the forest so every invariant holds again:
//   - nodes whose parent does not exist become roots
//   - parent loops are broken by promoting the oldest node of each loop to a root
//   - levels are re-derived from the parent chain
//   - sibling orders are renumbered 0..n-1, keeping their relative order
//
// Only records that differ from their stored state are written.
func (e *Engine) Repair(ctx context.Context) (Result, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}

	work := make(map[string]Organization, snap.Len())
	for _, n := range snap.nodes {
		work[n.ID] = n
	}
	cs := newChangeset()
	cs.track(snap.nodes...)

	for id, n := range work {
		if p := n.Parent(); p != "" {
			if _, ok := work[p]; !ok {
				n.ParentID = nil
				work[id] = n
			}
		}
	}

	groups := func() map[string][]Organization {
		g := make(map[string][]Organization)
		for _, n := range work {
			g[n.Parent()] = append(g[n.Parent()], n)
		}
		for _, group := range g {
			sortSiblings(group)
		}
		return g
	}

	visited := make(map[string]bool, len(work))
	walk := func(children map[string][]Organization, rootID string, rootLevel int) {
		type item struct {
			id    string
			level int
		}
		n := work[rootID]
		n.Level = rootLevel
		work[rootID] = n
		visited[rootID] = true
		queue := []item{{rootID, rootLevel}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, c := range children[cur.id] {
				if visited[c.ID] {
					continue
				}
				visited[c.ID] = true
				child := work[c.ID]
				child.Level = cur.level + 1
				work[c.ID] = child
				queue = append(queue, item{c.ID, child.Level})
			}
		}
	}

	children := groups()
	for _, r := range children[""] {
		walk(children, r.ID, 0)
	}

	// Whatever is left hangs off a loop.
	for len(visited) < len(work) {
		var stranded []Organization
		for id, n := range work {
			if !visited[id] {
				stranded = append(stranded, n)
			}
		}
		slices.SortFunc(stranded, compareAge)

		// A stranded node's parent chain never reaches a root, so it ends in a loop.
		seen := make(map[string]bool)
		cur := stranded[0].ID
		for !seen[cur] {
			seen[cur] = true
			cur = work[cur].Parent()
		}
		var loop []Organization
		for id := cur; ; {
			loop = append(loop, work[id])
			if id = work[id].Parent(); id == cur {
				break
			}
		}
		slices.SortFunc(loop, compareAge)

		head := loop[0]
		head.ParentID = nil
		work[head.ID] = head
		e.logger.Warn("breaking parent loop", "id", head.ID)

		children = groups()
		walk(children, head.ID, 0)
	}

	// Detached nodes are appended after the existing roots, in their
	// previous relative order.
	for parent, group := range groups() {
		if parent == "" {
			slices.SortStableFunc(group, func(a, b Organization) int {
				return boolCompare(!snap.isRoot(a.ID), !snap.isRoot(b.ID))
			})
		}
		for i, n := range group {
			n.Order = i
			work[n.ID] = n
		}
	}

	for _, n := range snap.nodes {
		cs.set(work[n.ID])
	}
	changed := cs.list()
	if len(changed) == 0 {
		e.logger.Info("forest already consistent", "nodes", snap.Len())
		return Result{Snapshot: snap}, nil
	}
	if err := e.nodes.PutBatch(ctx, changed); err != nil {
		return Result{}, fmt.Errorf("repair forest: %w", err)
	}

	e.logger.Info("forest repaired", "nodes", snap.Len(), "updated", len(changed))

	return e.finish(ctx, Organization{}, changed)
}

// isRoot reports whether the stored record for id has no parent.
func (s *Snapshot) isRoot(id string) bool {
	n, ok := s.Node(id)
	return ok && n.IsRoot()
}

func compareAge(a, b Organization) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return compareSiblings(a, b)
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
