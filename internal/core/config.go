package core

// RuntimeConfig contains configuration passed to the interactive client.
// The simulation itself has a fixed 600x400 world; these values only
// describe the terminal it is drawn into and how often it is ticked.
type RuntimeConfig struct {
	ScreenW  int // Screen width in characters
	ScreenH  int // Screen height in characters
	TickRate int // Ticks requested per second (default 20)
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 20,
	}
}
