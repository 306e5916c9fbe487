package flappy

import (
	"fmt"

	"github.com/vovakirdan/flappy-core/internal/core"
)

// Visual characters for rendering.
const (
	BirdChar   = '●'
	BeakChar   = '▶'
	PipeChar   = '█'
	GroundChar = '═'
)

// viewport maps world pixels onto a screen whose last row is the HUD.
type viewport struct {
	cols, rows int
}

func (v viewport) col(x int32) int {
	return int(x) * v.cols / int(GameWidth)
}

func (v viewport) row(y int32) int {
	return int(y) * v.rows / int(GameHeight)
}

// Render draws the record into dst. The world is scaled to fit; the bottom
// row carries the score line.
func (g *GameState) Render(dst *core.Screen) {
	dst.Clear()
	if dst.Width() < 10 || dst.Height() < 5 {
		dst.DrawTextCentered(dst.Height()/2, "too small")
		return
	}

	vp := viewport{cols: dst.Width(), rows: dst.Height() - 1}

	for _, p := range g.Pipes {
		if p.Active {
			drawPipe(dst, vp, p)
		}
	}
	drawBird(dst, vp, g.BirdY.Pixels())

	dst.DrawHLine(0, vp.rows, vp.cols, GroundChar, core.ColorGray)
	hud := fmt.Sprintf(" Score: %d  Best: %d  Frame: %d ", g.Score, g.HighScore, g.FrameCount)
	dst.DrawTextColored(2, vp.rows, hud, core.ColorBrightWhite)

	switch g.Status {
	case StatusNotStarted:
		drawCenteredMessage(dst, "FLAPPY", "Space to flap  |  Enter to start")
	case StatusGameOver:
		drawCenteredMessage(dst, "GAME OVER",
			fmt.Sprintf("Score: %d  |  Enter to play again", g.Score))
	}
}

func drawPipe(dst *core.Screen, vp viewport, p Pipe) {
	left := vp.col(p.X)
	width := core.Max(vp.col(p.X+PipeWidth)-left, 1)
	top := vp.row(p.GapTop())
	bottom := vp.row(p.GapBottom())

	dst.FillRect(left, 0, width, top, PipeChar, core.ColorGreen)
	dst.FillRect(left, bottom, width, vp.rows-bottom, PipeChar, core.ColorGreen)
}

func drawBird(dst *core.Screen, vp viewport, birdY int32) {
	left := vp.col(BirdX)
	width := core.Max(vp.col(BirdX+BirdSize)-left, 1)
	// A bird that left the world on game over stays pinned to its edge.
	top := core.Clamp(vp.row(birdY), 0, vp.rows-1)
	height := core.Max(core.Min(vp.row(birdY+BirdSize), vp.rows)-top, 1)

	dst.FillRect(left, top, width, height, BirdChar, core.ColorBrightYellow)
	dst.SetColored(left+width-1, top, BeakChar, core.ColorOrange)
}

// drawCenteredMessage draws a message box in the center of the screen.
func drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := core.Max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	dst.FillRect(boxX, boxY, boxW, boxH, ' ', core.ColorDefault)
	dst.DrawBox(boxX, boxY, boxW, boxH)

	dst.DrawText(boxX+(boxW-len([]rune(title)))/2, boxY+1, title)
	dst.DrawText(boxX+(boxW-len([]rune(subtitle)))/2, boxY+3, subtitle)
}
