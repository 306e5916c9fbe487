// Package session applies named operations to stored game records.
//
// Each call loads one record, runs the operation under a per-player lock,
// and commits the new state with a journal entry. Operations that fail
// leave storage untouched.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-core/internal/auth"
	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/registry"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

// OpInitialize is the journal name of record creation.
const OpInitialize = "initialize"

// ErrNoGame is returned when a player has no record yet.
var ErrNoGame = errors.New("session: no game for player")

// ErrGameExists is returned by Create when the player already has a record.
var ErrGameExists = errors.New("session: game already exists")

// Clock supplies the timestamp handed to every operation.
type Clock interface {
	Now() int64
}

// SystemClock reads wall-clock unix seconds.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() int64 { return time.Now().Unix() }

// Store is the persistence the service needs.
type Store interface {
	Game(ctx context.Context, player string) (storage.Record, error)
	ResetGame(ctx context.Context, rec storage.Record, entry storage.JournalEntry) error
	CommitOp(ctx context.Context, rec storage.Record, entry storage.JournalEntry) error
	SaveScore(ctx context.Context, player string, score uint64) (int64, error)
}

// Prover turns a caller into a proof.
type Prover interface {
	Prove(ctx context.Context, c auth.Caller) (flappy.Proof, error)
}

// Service runs operations against stored records.
type Service struct {
	store  Store
	prover Prover
	clock  Clock
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*playerLock
}

// playerLock is dropped from the map once nobody holds or waits for it.
type playerLock struct {
	sync.Mutex
	refs int
}

// New creates a service. A nil clock uses SystemClock and a nil logger
// uses the package default.
func New(store Store, prover Prover, clock Clock, logger *log.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:  store,
		prover: prover,
		clock:  clock,
		logger: logger,
		locks:  make(map[string]*playerLock),
	}
}

// lock serializes access to one player's record.
func (s *Service) lock(player string) func() {
	s.mu.Lock()
	l, ok := s.locks[player]
	if !ok {
		l = &playerLock{}
		s.locks[player] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, player)
		}
		s.mu.Unlock()
	}
}

// lockCount reports how many players currently have a lock entry.
func (s *Service) lockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// Initialize creates the record for player, who becomes its authority.
// An existing record is replaced and its journal restarted.
func (s *Service) Initialize(ctx context.Context, player string) (flappy.GameState, error) {
	if player == "" {
		return flappy.GameState{}, errors.New("session: player name is required")
	}
	defer s.lock(player)()
	return s.initialize(ctx, player)
}

// Create is Initialize for a player without a record. It fails with
// ErrGameExists rather than replacing one.
func (s *Service) Create(ctx context.Context, player string) (flappy.GameState, error) {
	if player == "" {
		return flappy.GameState{}, errors.New("session: player name is required")
	}
	defer s.lock(player)()

	_, err := s.load(ctx, player)
	switch {
	case err == nil:
		return flappy.GameState{}, fmt.Errorf("%w: %s", ErrGameExists, player)
	case !errors.Is(err, ErrNoGame):
		return flappy.GameState{}, err
	}
	return s.initialize(ctx, player)
}

func (s *Service) initialize(ctx context.Context, player string) (flappy.GameState, error) {
	now := s.clock.Now()
	g := flappy.New(player, now)

	rec, err := encode(player, g)
	if err != nil {
		return flappy.GameState{}, err
	}
	entry := storage.JournalEntry{Op: OpInitialize, Clock: now, Digest: g.Digest()}
	if err := s.store.ResetGame(ctx, rec, entry); err != nil {
		return flappy.GameState{}, fmt.Errorf("session: %w", err)
	}

	s.logger.Info("Game initialized", "player", player, "seed", g.Seed)
	return g, nil
}

// Do applies the named operation to player's record on behalf of caller.
// It returns the record after the operation.
func (s *Service) Do(ctx context.Context, player, op string, caller auth.Caller) (flappy.GameState, error) {
	handler, err := registry.Lookup(op)
	if err != nil {
		return flappy.GameState{}, err
	}

	defer s.lock(player)()

	g, err := s.load(ctx, player)
	if err != nil {
		return flappy.GameState{}, err
	}

	proof, err := s.prover.Prove(ctx, caller)
	if err != nil {
		return flappy.GameState{}, fmt.Errorf("session: %w", err)
	}

	now := s.clock.Now()
	before := g.Status
	if err := handler(&g, proof, now); err != nil {
		s.logger.Debug("Operation rejected", "player", player, "op", op, "err", err)
		return flappy.GameState{}, err
	}

	rec, err := encode(player, g)
	if err != nil {
		return flappy.GameState{}, err
	}
	entry := storage.JournalEntry{Op: op, Clock: now, Digest: g.Digest()}
	if err := s.store.CommitOp(ctx, rec, entry); err != nil {
		return flappy.GameState{}, fmt.Errorf("session: %w", err)
	}

	if before != flappy.StatusGameOver && g.Status == flappy.StatusGameOver {
		s.logger.Info("Episode over", "player", player, "score", g.Score, "high", g.HighScore)
		if g.Score > 0 {
			if _, err := s.store.SaveScore(ctx, player, g.Score); err != nil {
				s.logger.Warn("Failed to save score", "player", player, "err", err)
			}
		}
	}

	return g, nil
}

// State returns player's current record.
func (s *Service) State(ctx context.Context, player string) (flappy.GameState, error) {
	defer s.lock(player)()
	return s.load(ctx, player)
}

func (s *Service) load(ctx context.Context, player string) (flappy.GameState, error) {
	rec, err := s.store.Game(ctx, player)
	if errors.Is(err, storage.ErrNotFound) {
		return flappy.GameState{}, fmt.Errorf("%w: %s", ErrNoGame, player)
	}
	if err != nil {
		return flappy.GameState{}, fmt.Errorf("session: %w", err)
	}

	var g flappy.GameState
	if err := g.UnmarshalBinary(rec.State); err != nil {
		return flappy.GameState{}, fmt.Errorf("session: record for %s: %w", player, err)
	}
	return g, nil
}

func encode(player string, g flappy.GameState) (storage.Record, error) {
	data, err := g.MarshalBinary()
	if err != nil {
		return storage.Record{}, fmt.Errorf("session: %w", err)
	}
	return storage.Record{Player: player, Authority: g.Authority, State: data}, nil
}
