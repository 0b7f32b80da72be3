package mission

// Action is what the operator asked the frame loop to do.
type Action int

const (
	// None keeps the current stage running.
	None Action = iota
	// Next ends the current stage and starts the following one.
	Next
	// Abort ends the whole mission.
	Abort
)

// Keys, as returned by a display's key poll (masked to 8 bits).
const (
	KeyNext  = 'q'
	KeyAbort = 27 // Esc
)

// String returns the action's command word.
func (a Action) String() string {
	switch a {
	case Next:
		return "next"
	case Abort:
		return "abort"
	default:
		return "none"
	}
}

// KeyAction maps a polled key code to an action. Negative codes mean no
// key was pressed.
func KeyAction(key int) Action {
	if key < 0 {
		return None
	}
	switch key & 0xFF {
	case KeyNext:
		return Next
	case KeyAbort:
		return Abort
	default:
		return None
	}
}

// ParseAction maps a remote command word to an action.
func ParseAction(cmd string) (Action, bool) {
	switch cmd {
	case "next", "q":
		return Next, true
	case "abort", "esc":
		return Abort, true
	default:
		return None, false
	}
}
