package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacentio/canopy/hierarchy"
)

const prompt = "canopy> "

const shellHelp = `commands:
  tree            show the hierarchy
  stage ID        pick ID as the source of a transfer
  click ID        transfer the staged node under ID, or show ID
  cancel          drop the staged node
  up ID, down ID  move ID among its siblings
  quit            leave the shell`

func newShellCmd(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session for browsing and transferring organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &shell{c: c, session: hierarchy.NewTransferSession(c.app.Engine)}
			return s.run(cmd.Context())
		},
	}
}

// shell is the interactive console. It keeps the transfer session between
// commands.
type shell struct {
	c       *console
	session *hierarchy.TransferSession
}

func (s *shell) run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.c.in)
	fmt.Fprint(s.c.out, prompt)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			quit, err := s.exec(ctx, fields[0], fields[1:])
			if err != nil {
				fmt.Fprintln(s.c.out, "error:", err)
			}
			if quit {
				return nil
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.c.out, prompt)
	}
	fmt.Fprintln(s.c.out)
	return scanner.Err()
}

func (s *shell) exec(ctx context.Context, name string, args []string) (bool, error) {
	engine := s.c.app.Engine

	switch name {
	case "quit", "exit":
		return true, nil

	case "help":
		fmt.Fprintln(s.c.out, shellHelp)
		return false, nil

	case "tree":
		snap, err := engine.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		staged, _ := s.session.Staged()
		renderTree(s.c.out, snap, staged, s.session.Targets(snap))
		return false, nil

	case "cancel":
		if _, ok := s.session.Staged(); !ok {
			fmt.Fprintln(s.c.out, "nothing staged")
			return false, nil
		}
		s.session.Cancel()
		fmt.Fprintln(s.c.out, "transfer canceled")
		return false, nil
	}

	if len(args) != 1 {
		if !isShellCommand(name) {
			return false, fmt.Errorf("unknown command %q, try help", name)
		}
		return false, fmt.Errorf("%s takes one organization id", name)
	}
	id := args[0]

	switch name {
	case "stage":
		snap, err := engine.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		node, ok := snap.Node(id)
		if !ok {
			return false, fmt.Errorf("%w: %s", hierarchy.ErrNotFound, id)
		}
		s.session.Stage(id)
		fmt.Fprintf(s.c.out, "staged %s, click a target or cancel\n", describe(node))
		return false, nil

	case "click":
		return false, s.click(ctx, id)

	case "up", "down":
		dir := hierarchy.Up
		if name == "down" {
			dir = hierarchy.Down
		}
		res, err := engine.MoveSibling(ctx, id, dir)
		if err != nil {
			return false, err
		}
		if len(res.Changed) == 0 {
			fmt.Fprintf(s.c.out, "%s is already at the %s\n", describe(res.Node), edge(dir))
			return false, nil
		}
		fmt.Fprintf(s.c.out, "moved %s %s\n", describe(res.Node), dir)
		return false, nil
	}

	return false, fmt.Errorf("unknown command %q, try help", name)
}

// click completes a staged transfer onto id, or shows id when nothing is
// staged. A refused target keeps the stage so another can be picked.
func (s *shell) click(ctx context.Context, id string) error {
	source, staged := s.session.Staged()
	if !staged {
		snap, err := s.c.app.Engine.Snapshot(ctx)
		if err != nil {
			return err
		}
		node, ok := snap.Node(id)
		if !ok {
			return fmt.Errorf("%w: %s", hierarchy.ErrNotFound, id)
		}
		fmt.Fprintf(s.c.out, "%s level=%d order=%d children=%d\n",
			describe(node), node.Level, node.Order, len(snap.Children(id)))
		if node.Description != "" {
			fmt.Fprintln(s.c.out, "  "+node.Description)
		}
		return nil
	}

	res, err := s.session.Complete(ctx, id)
	switch {
	case errors.Is(err, hierarchy.ErrCycle) && id == source:
		fmt.Fprintln(s.c.out, "cannot transfer a node onto itself, click another target or cancel")
		return nil
	case errors.Is(err, hierarchy.ErrCycle):
		fmt.Fprintln(s.c.out, "cannot transfer a node into its own subtree, click another target or cancel")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(s.c.out, "transferred %s, %d records updated\n", describe(res.Node), len(res.Changed))
	return nil
}

func isShellCommand(name string) bool {
	switch name {
	case "stage", "click", "up", "down":
		return true
	}
	return false
}
