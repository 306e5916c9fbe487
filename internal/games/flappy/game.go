// Package flappy implements the deterministic Flappy Bird simulation core.
//
// A GameState is one player's session record. It is advanced one tick at a
// time by the entry points in machine.go; all motion is integer fixed-point
// and the pipe generator is a fixed LCG, so a record plus the sequence of
// operations (and their clock values) reproduces a session bit for bit.
package flappy

import "github.com/vovakirdan/flappy-core/internal/core"

// World geometry, in pixels.
const (
	GameWidth  int32 = 600
	GameHeight int32 = 400
	BirdSize   int32 = 30
	BirdX      int32 = 50 // Fixed horizontal position of the bird
)

// Physics, in fixed-point units (core.Scale per pixel).
const (
	Gravity      core.Fixed = 600
	JumpVelocity core.Fixed = -9000
	MaxVelocity  core.Fixed = 15000
)

// Pipes.
const (
	PipeWidth         int32 = 60
	PipeGap           int32 = 150
	PipeSpeed         int32 = 10 // Pixels per tick
	PipeSpawnDistance int32 = 200
	PipeHeightMin     int32 = 50
	MaxPipes                = 5
)

// Status is the game status machine state.
type Status uint8

const (
	StatusNotStarted Status = iota
	StatusPlaying
	StatusGameOver
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NotStarted"
	case StatusPlaying:
		return "Playing"
	case StatusGameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// Pipe is one obstacle slot. Inactive slots are free for reuse.
type Pipe struct {
	X      int32 `msgpack:"x"`      // Left edge, pixels
	GapY   int32 `msgpack:"gap_y"`  // Center of the passable gap
	Passed bool  `msgpack:"passed"` // Bird has cleared it (scored once)
	Active bool  `msgpack:"active"`
}

// GameState is the mutable record of one game session.
type GameState struct {
	Authority      string         `msgpack:"authority"`
	Score          uint64         `msgpack:"score"`
	HighScore      uint64         `msgpack:"high_score"`
	Status         Status         `msgpack:"status"`
	BirdY          core.Fixed     `msgpack:"bird_y"`
	BirdVelocity   core.Fixed     `msgpack:"bird_velocity"`
	FrameCount     uint64         `msgpack:"frame_count"`
	LastUpdate     int64          `msgpack:"last_update"`
	Pipes          [MaxPipes]Pipe `msgpack:"pipes"`
	NextPipeSpawnX int32          `msgpack:"next_pipe_spawn_x"`
	Seed           uint64         `msgpack:"seed"`
}

// New creates the record for a player, as done once at allocation time.
// now is the clock value; it stamps LastUpdate and seeds the generator.
func New(authority string, now int64) GameState {
	g := GameState{
		Authority:  authority,
		Status:     StatusNotStarted,
		LastUpdate: now,
		Seed:       uint64(now), //#nosec G115 -- clock value reinterpreted as seed bits
	}
	g.clearEpisode()
	g.NextPipeSpawnX = GameWidth + PipeSpawnDistance
	return g
}

// clearEpisode resets the per-episode fields shared by start and reset.
func (g *GameState) clearEpisode() {
	g.Score = 0
	g.BirdY = core.ToFixed(GameHeight / 2)
	g.BirdVelocity = 0
	g.FrameCount = 0
	for i := range g.Pipes {
		g.Pipes[i] = Pipe{X: -100, GapY: GameHeight / 2}
	}
	g.NextPipeSpawnX = GameWidth
}

// endEpisode moves to GameOver and folds the score into the high score.
func (g *GameState) endEpisode() {
	g.Status = StatusGameOver
	if g.Score > g.HighScore {
		g.HighScore = g.Score
	}
}

// ActivePipes returns the number of live obstacle slots.
func (g *GameState) ActivePipes() int {
	n := 0
	for _, p := range g.Pipes {
		if p.Active {
			n++
		}
	}
	return n
}

// step runs one tick: physics, collision, pipe scoring and spawning.
func (g *GameState) step(now int64) {
	g.integrate()

	birdY := g.BirdY.Pixels()
	if hitsBounds(birdY) {
		g.endEpisode()
		return
	}

	if g.advancePipes(birdY) {
		g.endEpisode()
		return
	}

	g.spawnPipe()
	g.LastUpdate = now
}
