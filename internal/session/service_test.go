package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-core/internal/auth"
	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/registry"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

// stepClock returns 1000, 1001, 1002, ...
type stepClock struct {
	t atomic.Int64
}

func (c *stepClock) Now() int64 { return 1000 + c.t.Add(1) - 1 }

func newTestService(t *testing.T) (*Service, *storage.Store, *auth.Authenticator) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	authn := auth.New(store)
	logger := log.New(io.Discard)
	return New(store, authn, &stepClock{}, logger), store, authn
}

func TestInitializeAndFlap(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Initialize(ctx, "alice")
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if g.Authority != "alice" || g.Status != flappy.StatusNotStarted || g.Seed != 1000 {
		t.Errorf("Initialize() = %+v", g)
	}

	g, err = svc.Do(ctx, "alice", "flap", auth.Caller{Signer: "alice"})
	if err != nil {
		t.Fatalf("Do(flap) failed: %v", err)
	}
	if g.Status != flappy.StatusPlaying || g.FrameCount != 1 || g.LastUpdate != 1001 {
		t.Errorf("After flap: status=%v frame=%d last=%d", g.Status, g.FrameCount, g.LastUpdate)
	}

	stored, err := svc.State(ctx, "alice")
	if err != nil {
		t.Fatalf("State() failed: %v", err)
	}
	if stored.Digest() != g.Digest() {
		t.Error("State() should return the record Do() committed")
	}

	entries, err := store.Journal(ctx, "alice")
	if err != nil {
		t.Fatalf("Journal() failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Op != OpInitialize || entries[1].Op != "flap" {
		t.Fatalf("Journal = %+v", entries)
	}
	if entries[1].Clock != 1001 || entries[1].Digest != g.Digest() {
		t.Errorf("Flap entry = %+v, want clock 1001 and post-state digest", entries[1])
	}
}

func TestDoWithoutGame(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Do(context.Background(), "ghost", "start", auth.Caller{Signer: "ghost"})
	if !errors.Is(err, ErrNoGame) {
		t.Errorf("Do() on missing record = %v, want ErrNoGame", err)
	}
	if _, err := svc.State(context.Background(), "ghost"); !errors.Is(err, ErrNoGame) {
		t.Errorf("State() on missing record = %v, want ErrNoGame", err)
	}
}

func TestDoUnknownOp(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	svc.Initialize(ctx, "alice")

	_, err := svc.Do(ctx, "alice", "teleport", auth.Caller{Signer: "alice"})
	if !errors.Is(err, registry.ErrUnknownOp) {
		t.Errorf("Do(teleport) = %v, want ErrUnknownOp", err)
	}
}

func TestRejectedOpPersistsNothing(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	initial, _ := svc.Initialize(ctx, "alice")

	if _, err := svc.Do(ctx, "alice", "start", auth.Caller{Signer: "bob"}); !errors.Is(err, flappy.ErrInvalidAuth) {
		t.Errorf("Do(start) by bob = %v, want ErrInvalidAuth", err)
	}
	if _, err := svc.Do(ctx, "alice", "tick", auth.Caller{Signer: "alice"}); !errors.Is(err, flappy.ErrGameNotPlaying) {
		t.Errorf("Do(tick) before start = %v, want ErrGameNotPlaying", err)
	}

	g, _ := svc.State(ctx, "alice")
	if g.Digest() != initial.Digest() {
		t.Error("Rejected operations should not change the stored record")
	}
	entries, _ := store.Journal(ctx, "alice")
	if len(entries) != 1 {
		t.Errorf("Rejected operations should not be journaled, got %d entries", len(entries))
	}
}

func TestDelegatedToken(t *testing.T) {
	svc, _, authn := newTestService(t)
	ctx := context.Background()
	svc.Initialize(ctx, "alice")

	tok, err := authn.Issue(ctx, "alice", "relay", time.Hour)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	g, err := svc.Do(ctx, "alice", "start", auth.Caller{Signer: "relay", Token: tok.Token})
	if err != nil {
		t.Fatalf("Do(start) with token failed: %v", err)
	}
	if g.Status != flappy.StatusPlaying {
		t.Errorf("Status = %v, want Playing", g.Status)
	}

	// The same token does not open another player's record.
	svc.Initialize(ctx, "bob")
	if _, err := svc.Do(ctx, "bob", "start", auth.Caller{Signer: "relay", Token: tok.Token}); !errors.Is(err, flappy.ErrInvalidAuth) {
		t.Errorf("Do(start) on bob with alice's token = %v, want ErrInvalidAuth", err)
	}
}

func TestEpisodeEndSavesScore(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	g := flappy.New("alice", 1)
	g.Status = flappy.StatusPlaying
	g.Score = 7
	data, _ := g.MarshalBinary()
	rec := storage.Record{Player: "alice", Authority: "alice", State: data}
	if err := store.ResetGame(ctx, rec, storage.JournalEntry{Op: OpInitialize}); err != nil {
		t.Fatalf("ResetGame() failed: %v", err)
	}

	g, err := svc.Do(ctx, "alice", "end", auth.Caller{Signer: "alice"})
	if err != nil {
		t.Fatalf("Do(end) failed: %v", err)
	}
	if g.HighScore != 7 {
		t.Errorf("HighScore = %d, want 7", g.HighScore)
	}

	// Ending an already finished episode records nothing new.
	svc.Do(ctx, "alice", "end", auth.Caller{Signer: "alice"})

	scores, err := store.TopScores(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 7 {
		t.Errorf("Scores = %+v, want one entry of 7", scores)
	}
}

func TestConcurrentOpsAreSerialized(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	svc.Initialize(ctx, "alice")
	svc.Do(ctx, "alice", "start", auth.Caller{Signer: "alice"})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Do(ctx, "alice", "flap", auth.Caller{Signer: "alice"})
		}()
	}
	wg.Wait()

	g, _ := svc.State(ctx, "alice")
	entries, _ := store.Journal(ctx, "alice")
	flaps := 0
	for _, e := range entries {
		if e.Op == "flap" {
			flaps++
		}
	}
	if uint64(flaps) != g.FrameCount {
		t.Errorf("Journal has %d flaps but frame count is %d", flaps, g.FrameCount)
	}
	if entries[len(entries)-1].Digest != g.Digest() {
		t.Error("Last journal digest should match the stored record")
	}
}

func TestLocksAreReleased(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	svc.Initialize(ctx, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Do(ctx, "alice", "flap", auth.Caller{Signer: "alice"})
			// Unknown players must not leave an entry behind.
			svc.State(ctx, fmt.Sprintf("ghost-%d", i))
		}(i)
	}
	wg.Wait()

	if n := svc.lockCount(); n != 0 {
		t.Errorf("lockCount() = %d after all calls returned, want 0", n)
	}
}

func TestCreateRefusesExistingRecord(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if g.Authority != "alice" || g.Status != flappy.StatusNotStarted {
		t.Errorf("Create() = %+v", g)
	}

	svc.Do(ctx, "alice", "start", auth.Caller{Signer: "alice"})

	if _, err := svc.Create(ctx, "alice"); !errors.Is(err, ErrGameExists) {
		t.Fatalf("Create() on existing record err = %v, want ErrGameExists", err)
	}
	g, _ = svc.State(ctx, "alice")
	if g.Status != flappy.StatusPlaying {
		t.Errorf("Existing record was replaced: status=%v", g.Status)
	}
	entries, _ := store.Journal(ctx, "alice")
	if len(entries) != 2 {
		t.Errorf("Journal has %d entries, want 2", len(entries))
	}
}
