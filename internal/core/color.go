package core

// Color is the foreground color of a screen cell. The client maps each
// value to an ANSI 256-color code.
type Color uint8

// Colors used by the renderer.
const (
	ColorDefault      Color = iota
	ColorGreen              // Pipes
	ColorBrightRed          // Rejected-operation notice
	ColorBrightYellow       // Bird body
	ColorBrightWhite        // HUD text
	ColorOrange             // Beak
	ColorGray               // Ground
)
