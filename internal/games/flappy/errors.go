package flappy

import "errors"

// Operation failures. Each leaves the record unchanged.
var (
	ErrGameNotPlaying     = errors.New("game is not in playing state")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrInvalidAuth        = errors.New("invalid authentication")
)

// ErrorCode returns the stable wire name of an operation failure,
// or "" if err is not one of them.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrGameNotPlaying):
		return "GameNotPlaying"
	case errors.Is(err, ErrGameAlreadyStarted):
		return "GameAlreadyStarted"
	case errors.Is(err, ErrInvalidAuth):
		return "InvalidAuth"
	default:
		return ""
	}
}
