// Package replay re-executes a record's journal and checks every digest.
//
// Operations are pure functions of the record and the clock value, so a
// journal plus its initialize entry fully determines the record.
package replay

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/registry"
	"github.com/vovakirdan/flappy-core/internal/session"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

// ErrEmptyJournal is returned for a journal without entries.
var ErrEmptyJournal = errors.New("replay: journal is empty")

// MismatchError reports the first entry whose recomputed digest differs
// from the recorded one.
type MismatchError struct {
	Index int
	Op    string
	Want  uint64
	Got   uint64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("replay: entry %d (%s): digest %016x, recorded %016x", e.Index, e.Op, e.Got, e.Want)
}

// Verify rebuilds authority's record from entries and returns the final state.
// The first entry must be the initialize entry.
func Verify(authority string, entries []storage.JournalEntry) (flappy.GameState, error) {
	if len(entries) == 0 {
		return flappy.GameState{}, ErrEmptyJournal
	}
	if entries[0].Op != session.OpInitialize {
		return flappy.GameState{}, fmt.Errorf("replay: journal starts with %q, want %q", entries[0].Op, session.OpInitialize)
	}

	g := flappy.New(authority, entries[0].Clock)
	if err := check(0, entries[0], g); err != nil {
		return g, err
	}

	proof := flappy.Signer(authority)
	for i, e := range entries[1:] {
		handler, err := registry.Lookup(e.Op)
		if err != nil {
			return g, fmt.Errorf("replay: entry %d: %w", i+1, err)
		}
		// Only successful operations are journaled.
		if err := handler(&g, proof, e.Clock); err != nil {
			return g, fmt.Errorf("replay: entry %d (%s) failed: %w", i+1, e.Op, err)
		}
		if err := check(i+1, e, g); err != nil {
			return g, err
		}
	}
	return g, nil
}

func check(i int, e storage.JournalEntry, g flappy.GameState) error {
	if got := g.Digest(); got != e.Digest {
		return &MismatchError{Index: i, Op: e.Op, Want: e.Digest, Got: got}
	}
	return nil
}
