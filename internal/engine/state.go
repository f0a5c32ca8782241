package engine

// State is a step of a migration run.
type State int

const (
	Idle State = iota
	Connecting
	ConstraintsSuspended
	Migrating
	ConstraintsRestored
	Verifying
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case ConstraintsSuspended:
		return "ConstraintsSuspended"
	case Migrating:
		return "Migrating"
	case ConstraintsRestored:
		return "ConstraintsRestored"
	case Verifying:
		return "Verifying"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
