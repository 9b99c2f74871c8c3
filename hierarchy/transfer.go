package hierarchy

import (
	"context"
	"fmt"
)

// TransferSession holds the two-step transfer interaction: a source node is
// staged, then a target is picked. It is plain view state and is not safe
// for concurrent use.
type TransferSession struct {
	engine *Engine
	source string
}

// NewTransferSession creates an idle session.
func NewTransferSession(engine *Engine) *TransferSession {
	return &TransferSession{engine: engine}
}

// Stage marks id as the transfer source, replacing any earlier stage.
func (s *TransferSession) Stage(id string) {
	s.source = id
}

// Staged returns the staged source id, if any.
func (s *TransferSession) Staged() (string, bool) {
	return s.source, s.source != ""
}

// Cancel clears the stage.
func (s *TransferSession) Cancel() {
	s.source = ""
}

// Complete transfers the staged source under targetID. The stage is kept
// when the transfer fails so the user can pick another target.
func (s *TransferSession) Complete(ctx context.Context, targetID string) (Result, error) {
	if s.source == "" {
		return Result{}, ErrNothingStaged
	}
	res, err := s.engine.TransferSubtree(ctx, s.source, targetID)
	if err != nil {
		return res, fmt.Errorf("transfer %s: %w", s.source, err)
	}
	s.source = ""
	return res, nil
}

// Targets returns the ids in snap the staged source may be dropped onto.
func (s *TransferSession) Targets(snap *Snapshot) map[string]bool {
	out := make(map[string]bool)
	if s.source == "" {
		return out
	}
	snap.Walk(func(n Organization, _ int) bool {
		if snap.Transferable(s.source, n.ID) {
			out[n.ID] = true
		}
		return true
	})
	return out
}
