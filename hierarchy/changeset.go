package hierarchy

import "slices"

// changeset accumulates pending record updates keyed by id. A record set
// back to its tracked original is dropped, so list only returns real
// changes, each id at most once.
type changeset struct {
	base map[string]Organization
	next map[string]Organization
	ids  []string
}

func newChangeset() *changeset {
	return &changeset{
		base: make(map[string]Organization),
		next: make(map[string]Organization),
	}
}

// track records the original state of nodes. Already tracked ids keep
// their first recorded state.
func (c *changeset) track(nodes ...Organization) {
	for _, n := range nodes {
		if _, ok := c.base[n.ID]; !ok {
			c.base[n.ID] = n
		}
	}
}

// current returns the pending version of n, or n itself.
func (c *changeset) current(n Organization) Organization {
	if v, ok := c.next[n.ID]; ok {
		return v
	}
	return n
}

func (c *changeset) set(n Organization) {
	if orig, ok := c.base[n.ID]; ok && equalNode(orig, n) {
		delete(c.next, n.ID)
		return
	}
	if _, ok := c.next[n.ID]; !ok && !slices.Contains(c.ids, n.ID) {
		c.ids = append(c.ids, n.ID)
	}
	c.next[n.ID] = n
}

func (c *changeset) list() []Organization {
	out := make([]Organization, 0, len(c.next))
	for _, id := range c.ids {
		if n, ok := c.next[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func equalNode(a, b Organization) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		sameParent(a.ParentID, b.ParentID) &&
		a.Level == b.Level &&
		a.Order == b.Order &&
		a.CreatedAt.Equal(b.CreatedAt)
}

// sortSiblings orders nodes the way a Snapshot orders a sibling group.
func sortSiblings(nodes []Organization) []Organization {
	slices.SortFunc(nodes, compareSiblings)
	return nodes
}

func compareSiblings(a, b Organization) int {
	switch {
	case a.Order != b.Order:
		if a.Order < b.Order {
			return -1
		}
		return 1
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.Compare(b.CreatedAt)
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
