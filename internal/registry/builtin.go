package registry

import "github.com/vovakirdan/flappy-core/internal/games/flappy"

func init() {
	Register("start", "Start a new episode", (*flappy.GameState).Start)
	Register("flap", "Flap and advance one tick", (*flappy.GameState).Flap)
	Register("tick", "Advance one tick", (*flappy.GameState).Tick)
	Register("end", "End the episode", (*flappy.GameState).End)
	Register("reset", "Return to the title state", (*flappy.GameState).Reset)
}
