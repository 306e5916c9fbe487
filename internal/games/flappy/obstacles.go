package flappy

// LCG constants. Changing any of them breaks replay of recorded sessions.
const (
	lcgMultiplier uint64 = 1103515245
	lcgIncrement  uint64 = 12345
	lcgShift      uint64 = 65536
	gapRange      uint64 = 300
)

// nextSeed advances the generator one step with uint64 wraparound.
func nextSeed(seed uint64) uint64 {
	return seed*lcgMultiplier + lcgIncrement
}

// gapForSeed maps a generator state to a clamped gap center.
func gapForSeed(seed uint64) int32 {
	offset := int32((seed / lcgShift) % gapRange) //#nosec G115 -- offset < 300
	gapY := PipeHeightMin + PipeGap/2 + offset
	return min(gapY, GameHeight-PipeHeightMin-PipeGap/2)
}

// advancePipes moves every active pipe left, scores passes, frees pipes that
// left the screen and tests each one for a collision. It returns true on the
// first pipe the bird hits; later slots are left untouched that tick.
func (g *GameState) advancePipes(birdY int32) bool {
	for i := range g.Pipes {
		p := &g.Pipes[i]
		if !p.Active {
			continue
		}

		p.X -= PipeSpeed

		if !p.Passed && p.X+PipeWidth < BirdX {
			p.Passed = true
			g.Score++
		}

		if p.X+PipeWidth < 0 {
			p.Active = false
		}

		if p.collides(birdY) {
			return true
		}
	}
	return false
}

// rightmostPipeX returns the largest x among active pipes, or 0 if none.
func (g *GameState) rightmostPipeX() int32 {
	var rightmost int32
	for _, p := range g.Pipes {
		if p.Active && p.X > rightmost {
			rightmost = p.X
		}
	}
	return rightmost
}

// spawnPipe places at most one new pipe in the lowest free slot once the
// rightmost pipe has moved far enough from the right edge.
func (g *GameState) spawnPipe() {
	rightmost := g.rightmostPipeX()
	if rightmost >= GameWidth-PipeSpawnDistance && rightmost != 0 {
		return
	}

	for i := range g.Pipes {
		if g.Pipes[i].Active {
			continue
		}
		g.Seed = nextSeed(g.Seed)
		g.Pipes[i] = Pipe{
			X:      GameWidth,
			GapY:   gapForSeed(g.Seed),
			Passed: false,
			Active: true,
		}
		return
	}
}

// GapSequence returns the first n gap centers the generator would produce
// from seed. Used by tooling to preview a seed without touching a record.
func GapSequence(seed uint64, n int) []int32 {
	gaps := make([]int32, n)
	for i := range gaps {
		seed = nextSeed(seed)
		gaps[i] = gapForSeed(seed)
	}
	return gaps
}
