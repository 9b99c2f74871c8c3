package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/canopy/hierarchy"
)

func newOrgCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage the organization hierarchy",
	}
	cmd.AddCommand(
		newOrgAddCmd(c),
		newOrgEditCmd(c),
		newOrgDeleteCmd(c),
		newOrgMoveCmd(c, hierarchy.Up),
		newOrgMoveCmd(c, hierarchy.Down),
		newOrgTransferCmd(c),
		newOrgTreeCmd(c),
		newOrgCheckCmd(c),
		newOrgRepairCmd(c),
		newOrgExportCmd(c),
		newOrgImportCmd(c),
	)
	return cmd
}

func newOrgAddCmd(c *console) *cobra.Command {
	var in hierarchy.NodeInput
	var parent string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an organization and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			if parent != "" {
				in.ParentID = &parent
			}
			res, err := c.app.Engine.AddNode(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, res.Node.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent organization id (default: add a root)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	return cmd
}

func newOrgEditCmd(c *console) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an organization's name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := c.app.Engine.Snapshot(ctx)
			if err != nil {
				return err
			}
			node, ok := snap.Node(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", hierarchy.ErrNotFound, args[0])
			}

			in := hierarchy.NodeInput{Name: node.Name, Description: node.Description}
			if cmd.Flags().Changed("name") {
				in.Name = name
			}
			if cmd.Flags().Changed("description") {
				in.Description = description
			}
			res, err := c.app.Engine.EditNode(ctx, node.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "updated %s\n", describe(res.Node))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newOrgDeleteCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an organization, promoting its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Engine.DeleteNode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s, %d records updated\n", describe(res.Node), len(res.Changed))
			return nil
		},
	}
}

func newOrgMoveCmd(c *console, dir hierarchy.Direction) *cobra.Command {
	return &cobra.Command{
		Use:   dir.String() + " ID",
		Short: "Move an organization " + dir.String() + " among its siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Engine.MoveSibling(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			if len(res.Changed) == 0 {
				fmt.Fprintf(c.out, "%s is already at the %s\n", describe(res.Node), edge(dir))
				return nil
			}
			fmt.Fprintf(c.out, "moved %s %s\n", describe(res.Node), dir)
			return nil
		},
	}
}

func edge(dir hierarchy.Direction) string {
	if dir == hierarchy.Up {
		return "top"
	}
	return "bottom"
}

func newOrgTransferCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer SOURCE TARGET",
		Short: "Move an organization and its subtree under another organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Engine.TransferSubtree(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "transferred %s, %d records updated\n", describe(res.Node), len(res.Changed))
			return nil
		},
	}
}

func newOrgTreeCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the organization hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.app.Engine.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			renderTree(c.out, snap, "", nil)
			return nil
		},
	}
}

func newOrgCheckCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report broken level, order or parent invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.app.Engine.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			violations := snap.Violations()
			for _, v := range violations {
				fmt.Fprintln(c.out, v)
			}
			if len(violations) > 0 {
				return withCode(exitInvalid, fmt.Errorf("%d violations, run 'canopy org repair'", len(violations)))
			}
			fmt.Fprintf(c.out, "%d organizations, no violations\n", snap.Len())
			return nil
		},
	}
}

func newOrgRepairCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Recompute levels and sibling order from the parent chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Engine.Repair(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%d records updated\n", len(res.Changed))
			return nil
		},
	}
}

func newOrgExportCmd(c *console) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the hierarchy as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.app.Engine.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if file == "" || file == "-" {
				return hierarchy.Export(c.out, snap)
			}
			f, err := os.Create(file)
			if err != nil {
				return err
			}
			if err := hierarchy.Export(f, snap); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default: stdout)")
	return cmd
}

func newOrgImportCmd(c *console) *cobra.Command {
	var file, parent string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Add the organizations of a YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = c.in
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var parentID *string
			if parent != "" {
				parentID = &parent
			}
			n, err := hierarchy.Import(cmd.Context(), c.app.Engine, r, parentID)
			if err != nil {
				return fmt.Errorf("after %d organizations: %w", n, err)
			}
			fmt.Fprintf(c.out, "imported %d organizations\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (default: stdin)")
	cmd.Flags().StringVar(&parent, "parent", "", "Import under this organization (default: as roots)")
	return cmd
}
