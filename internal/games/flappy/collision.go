package flappy

import "github.com/vovakirdan/flappy-core/internal/core"

// birdRect returns the bird's hitbox at the given pixel height.
func birdRect(birdY int32) core.Rect {
	return core.NewRect(BirdX, birdY, BirdSize, BirdSize)
}

// hitsBounds reports whether the bird touches the ceiling or the floor.
func hitsBounds(birdY int32) bool {
	return birdY <= 0 || birdY+BirdSize >= GameHeight
}

// Rect returns the horizontal extent of the pipe as a full-height column.
func (p Pipe) Rect() core.Rect {
	return core.NewRect(p.X, 0, PipeWidth, GameHeight)
}

// GapTop returns the first passable row of the gap.
func (p Pipe) GapTop() int32 {
	return p.GapY - PipeGap/2
}

// GapBottom returns the row just past the gap.
func (p Pipe) GapBottom() int32 {
	return p.GapY + PipeGap/2
}

// collides reports whether the bird at birdY hits this pipe.
// Inactive pipes never collide.
func (p Pipe) collides(birdY int32) bool {
	if !p.Active {
		return false
	}
	bird := birdRect(birdY)
	if !bird.OverlapsX(p.Rect()) {
		return false
	}
	return !bird.WithinY(p.GapTop(), p.GapBottom())
}
