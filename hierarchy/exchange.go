package hierarchy

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// TreeNode is the nested export form of an organization.
type TreeNode struct {
	ID          string     `yaml:"id,omitempty"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Children    []TreeNode `yaml:"children,omitempty"`
}

// Document is the top-level export document.
type Document struct {
	Organizations []TreeNode `yaml:"organizations"`
}

// Tree converts snap into nested form, siblings in display order.
func Tree(snap *Snapshot) Document {
	var doc Document
	// paths[d] is the child list being filled at depth d.
	paths := []*[]TreeNode{&doc.Organizations}
	snap.Walk(func(n Organization, depth int) bool {
		paths = paths[:depth+1]
		list := paths[depth]
		*list = append(*list, TreeNode{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
		})
		added := &(*list)[len(*list)-1]
		paths = append(paths, &added.Children)
		return true
	})
	return doc
}

// Export writes snap as YAML.
func Export(w io.Writer, snap *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Tree(snap)); err != nil {
		return fmt.Errorf("encode organizations: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML document and adds every node through the engine,
// under parentID (nil imports as roots). Ids in the document are ignored;
// new ids are generated. It returns the number of nodes added.
func Import(ctx context.Context, engine *Engine, r io.Reader, parentID *string) (int, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("decode organizations: %w", err)
	}

	type pending struct {
		node   TreeNode
		parent *string
	}
	queue := make([]pending, 0, len(doc.Organizations))
	for _, n := range doc.Organizations {
		queue = append(queue, pending{node: n, parent: parentID})
	}

	added := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		res, err := engine.AddNode(ctx, NodeInput{
			Name:        p.node.Name,
			Description: p.node.Description,
			ParentID:    p.parent,
		})
		if err != nil {
			return added, fmt.Errorf("import %q: %w", p.node.Name, err)
		}
		added++

		id := res.Node.ID
		for _, c := range p.node.Children {
			queue = append(queue, pending{node: c, parent: &id})
		}
	}
	return added, nil
}
