package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jacentio/canopy/hierarchy"
)

// Tree markers.
const (
	markStaged = "[staged]"
	markTarget = "[target]"
)

func describe(n hierarchy.Organization) string {
	return fmt.Sprintf("%s (%s)", n.Name, n.ID)
}

// renderTree prints snap as an indented outline. The staged node and the
// nodes it may be transferred onto are marked.
func renderTree(w io.Writer, snap *hierarchy.Snapshot, staged string, targets map[string]bool) {
	if snap.Len() == 0 {
		fmt.Fprintln(w, "(no organizations)")
		return
	}
	snap.Walk(func(n hierarchy.Organization, depth int) bool {
		line := strings.Repeat("  ", depth) + describe(n)
		switch {
		case n.ID == staged:
			line += " " + markStaged
		case targets[n.ID]:
			line += " " + markTarget
		}
		fmt.Fprintln(w, line)
		return true
	})
}
