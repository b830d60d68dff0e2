package core

// Action represents a semantic player action, abstracted from physical key presses.
type Action int

const (
	ActionNone      Action = iota
	ActionTurnLeft         // A, Left arrow - rotate heading counter-clockwise
	ActionTurnRight        // D, Right arrow - rotate heading clockwise
	ActionQuit             // Q, Ctrl+C - leave the session
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionTurnLeft:
		return "TurnLeft"
	case ActionTurnRight:
		return "TurnRight"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
