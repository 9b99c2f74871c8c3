// Package hierarchy maintains the organization forest.
//
// Organizations form a forest: a node without a parent is a root, and every
// node carries a Level (its depth) and an Order (its position among its
// siblings, dense from 0). The Engine performs the structural operations
// and keeps those fields consistent:
//
//	engine := hierarchy.NewEngine(orgs)
//
//	res, err := engine.AddNode(ctx, hierarchy.NodeInput{Name: "Engineering"})
//	_, err = engine.MoveSibling(ctx, res.Node.ID, hierarchy.Up)
//	_, err = engine.TransferSubtree(ctx, res.Node.ID, targetID)
//	_, err = engine.DeleteNode(ctx, res.Node.ID) // children are promoted
//
// Every mutation returns the records it wrote and a fresh Snapshot of the
// forest, which is what a caller renders.
//
// # Levels
//
// With LevelCascade (the default) deleting or transferring a node updates
// the level of every node in the affected subtree. LevelShallow updates only
// the promoted children or the moved node. Repair recomputes everything from
// the parent chain.
//
// # Errors
//
//	errors.Is(err, hierarchy.ErrValidation) // bad input, see *ValidationError
//	errors.Is(err, hierarchy.ErrNotFound)   // unknown node id
//	errors.Is(err, hierarchy.ErrCycle)      // transfer into own subtree
//	errors.Is(err, hierarchy.ErrCorruptTree) // stored parents already loop
package hierarchy
