package core

// Action represents a semantic player action, abstracted from physical key presses.
type Action int

const (
	ActionNone  Action = iota
	ActionFlap         // Space, W, Up - flap (auto-starts a fresh record)
	ActionStart        // Enter - start a new episode
	ActionEnd          // E - give up the current episode
	ActionReset        // R - return to the title state
	ActionQuit         // Q, Ctrl+C - exit
	ActionScores       // Tab - toggle the scoreboard
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionFlap:
		return "Flap"
	case ActionStart:
		return "Start"
	case ActionEnd:
		return "End"
	case ActionReset:
		return "Reset"
	case ActionQuit:
		return "Quit"
	case ActionScores:
		return "Scores"
	default:
		return "Unknown"
	}
}

// Op returns the name of the session operation the action triggers,
// or "" if the action is handled by the client itself.
func (a Action) Op() string {
	switch a {
	case ActionFlap:
		return "flap"
	case ActionStart:
		return "start"
	case ActionEnd:
		return "end"
	case ActionReset:
		return "reset"
	default:
		return ""
	}
}
