package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-core/internal/replay"
)

var flagReplayVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run your journal and verify every step",
	Long: `Rebuild the record from its journal, re-applying each operation with its
recorded clock value, and check the result against every recorded digest.`,
	Args: cobra.NoArgs,
	Run:  runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&flagReplayVerbose, "verbose", "v", false, "List every journal entry")
}

func runReplay(_ *cobra.Command, _ []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	p := player()
	entries, err := a.store.Journal(context.Background(), p)
	if err != nil {
		a.Close()
		fail("%v", err)
	}

	if flagReplayVerbose {
		for i, e := range entries {
			fmt.Printf("  %4d  %-10s  clock=%-12d  digest=%016x\n", i, e.Op, e.Clock, e.Digest)
		}
	}

	g, err := replay.Verify(p, entries)
	var mismatch *replay.MismatchError
	switch {
	case errors.As(err, &mismatch):
		a.Close()
		fail("journal diverges at entry %d (%s)", mismatch.Index, mismatch.Op)
	case err != nil:
		a.Close()
		fail("%v", err)
	}

	fmt.Printf("Verified %d entries for %s.\n", len(entries), p)
	printState(g)
}
