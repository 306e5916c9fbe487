package flappy

// integrate advances the bird by one tick under gravity.
// The frame counter moves first; the order is observable only there.
func (g *GameState) integrate() {
	g.FrameCount++
	g.BirdVelocity = (g.BirdVelocity + Gravity).Clamp(MaxVelocity)
	g.BirdY += g.BirdVelocity
}
