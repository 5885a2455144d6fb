package incident

import "fmt"

// transitions lists the allowed forward moves. Nothing moves backwards and
// closed is terminal.
var transitions = map[Status][]Status{
	StatusOpen:          {StatusInvestigating, StatusResolved, StatusClosed},
	StatusInvestigating: {StatusResolved, StatusClosed},
	StatusResolved:      {StatusClosed},
	StatusClosed:        nil,
}

// CanTransition reports whether an incident in status from may move to status to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition applies a status change to inc, or returns ErrInvalidTransition.
func Transition(inc *Incident, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrSchemaViolation, to)
	}
	if !CanTransition(inc.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inc.Status, to)
	}
	inc.Status = to
	return nil
}
