package workstation

// State is the position of a session in the print workflow.
type State int

const (
	StateEditing State = iota
	StateValidating
	StateInvalid
	StatePrinting
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StatePrinting:
		return "printing"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}
