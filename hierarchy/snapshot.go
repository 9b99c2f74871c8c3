package hierarchy

import (
	"fmt"
	"slices"
)

// Snapshot is an immutable, indexed view of the whole forest as loaded from
// the store. Nodes live in one slice; parent/child relations are kept as
// index lists grouped by parent id ("" groups the roots).
type Snapshot struct {
	nodes    []Organization
	byID     map[string]int
	children map[string][]int
}

// NewSnapshot builds a snapshot from an unordered record set. Siblings are
// sorted by order, then creation time, then id.
func NewSnapshot(nodes []Organization) *Snapshot {
	s := &Snapshot{
		nodes:    slices.Clone(nodes),
		byID:     make(map[string]int, len(nodes)),
		children: make(map[string][]int),
	}
	for i, n := range s.nodes {
		s.byID[n.ID] = i
	}
	for i, n := range s.nodes {
		p := n.Parent()
		s.children[p] = append(s.children[p], i)
	}
	for _, group := range s.children {
		slices.SortFunc(group, s.compare)
	}
	return s
}

func (s *Snapshot) compare(a, b int) int {
	return compareSiblings(s.nodes[a], s.nodes[b])
}

// Len returns the number of nodes.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Node returns the node with the given id.
func (s *Snapshot) Node(id string) (Organization, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Organization{}, false
	}
	return s.nodes[i], true
}

// Children returns the children of parentID in display order.
// An empty parentID returns the roots.
func (s *Snapshot) Children(parentID string) []Organization {
	group := s.children[parentID]
	out := make([]Organization, len(group))
	for i, idx := range group {
		out[i] = s.nodes[idx]
	}
	return out
}

// Roots returns the root nodes in display order.
func (s *Snapshot) Roots() []Organization {
	return s.Children("")
}

// HasChildren reports whether the node has at least one child.
func (s *Snapshot) HasChildren(id string) bool {
	return len(s.children[id]) > 0
}

// Walk visits every node reachable from the roots in pre-order, passing the
// node's depth. Returning false from fn skips the node's subtree.
func (s *Snapshot) Walk(fn func(n Organization, depth int) bool) {
	type frame struct {
		idx   int
		depth int
	}
	visited := make([]bool, len(s.nodes))
	roots := s.children[""]
	stack := make([]frame, 0, len(s.nodes))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{idx: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.idx] {
			continue
		}
		visited[f.idx] = true
		n := s.nodes[f.idx]
		if !fn(n, f.depth) {
			continue
		}
		kids := s.children[n.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: kids[i], depth: f.depth + 1})
		}
	}
}

// Nodes returns every node reachable from the roots in pre-order.
func (s *Snapshot) Nodes() []Organization {
	out := make([]Organization, 0, len(s.nodes))
	s.Walk(func(n Organization, _ int) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Ancestors returns the ids on the parent chain of id, nearest first.
// The walk is bounded by the node count; a longer chain means the stored
// parent references loop, reported as ErrCorruptTree.
func (s *Snapshot) Ancestors(id string) ([]string, error) {
	n, ok := s.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var chain []string
	for p := n.Parent(); p != ""; {
		if len(chain) > len(s.nodes) {
			return nil, fmt.Errorf("%w: at %s", ErrCorruptTree, id)
		}
		chain = append(chain, p)
		parent, ok := s.Node(p)
		if !ok {
			break
		}
		p = parent.Parent()
	}
	return chain, nil
}

// Depth returns the length of the parent chain of id, counting only
// resolvable ancestors.
func (s *Snapshot) Depth(id string) (int, error) {
	chain, err := s.Ancestors(id)
	if err != nil {
		return 0, err
	}
	depth := 0
	for _, a := range chain {
		if _, ok := s.Node(a); !ok {
			break
		}
		depth++
	}
	return depth, nil
}

// IsDescendant reports whether id lies in the subtree rooted at ancestorID
// (excluding ancestorID itself).
func (s *Snapshot) IsDescendant(ancestorID, id string) (bool, error) {
	chain, err := s.Ancestors(id)
	if err != nil {
		return false, err
	}
	return slices.Contains(chain, ancestorID), nil
}

// Transferable reports whether sourceID may be transferred under targetID.
func (s *Snapshot) Transferable(sourceID, targetID string) bool {
	if sourceID == "" || sourceID == targetID {
		return false
	}
	if _, ok := s.Node(sourceID); !ok {
		return false
	}
	inside, err := s.IsDescendant(sourceID, targetID)
	return err == nil && !inside
}

// Descendants returns the subtree below id in breadth-first order.
func (s *Snapshot) Descendants(id string) []Organization {
	var out []Organization
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, idx := range s.children[cur] {
			child := s.nodes[idx]
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out
}

// Violation kinds reported by Violations.
const (
	ViolationDanglingParent = "dangling-parent"
	ViolationCycle          = "cycle"
	ViolationLevel          = "level"
	ViolationOrder          = "order"
)

// Violation is one broken invariant.
type Violation struct {
	NodeID string
	Kind   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Kind, v.NodeID, v.Detail)
}

// Violations checks the forest invariants: every parent resolves, no
// cycles, levels match the parent chain, sibling orders are 0..n-1.
func (s *Snapshot) Violations() []Violation {
	var out []Violation
	for _, n := range s.nodes {
		if p := n.Parent(); p != "" {
			if _, ok := s.Node(p); !ok {
				out = append(out, Violation{NodeID: n.ID, Kind: ViolationDanglingParent,
					Detail: fmt.Sprintf("parent %s does not exist", p)})
				continue
			}
		}
		depth, err := s.Depth(n.ID)
		if err != nil {
			out = append(out, Violation{NodeID: n.ID, Kind: ViolationCycle, Detail: err.Error()})
			continue
		}
		if n.Level != depth {
			out = append(out, Violation{NodeID: n.ID, Kind: ViolationLevel,
				Detail: fmt.Sprintf("level %d, depth %d", n.Level, depth)})
		}
	}

	parents := make([]string, 0, len(s.children))
	for p := range s.children {
		parents = append(parents, p)
	}
	slices.Sort(parents)
	for _, p := range parents {
		for want, idx := range s.children[p] {
			n := s.nodes[idx]
			if n.Order != want {
				out = append(out, Violation{NodeID: n.ID, Kind: ViolationOrder,
					Detail: fmt.Sprintf("order %d, position %d", n.Order, want)})
			}
		}
	}
	return out
}
