package incident

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusOpen, StatusInvestigating, true},
		{StatusOpen, StatusResolved, true},
		{StatusOpen, StatusClosed, true},
		{StatusInvestigating, StatusResolved, true},
		{StatusInvestigating, StatusClosed, true},
		{StatusResolved, StatusClosed, true},
		{StatusOpen, StatusOpen, false},
		{StatusInvestigating, StatusOpen, false},
		{StatusResolved, StatusOpen, false},
		{StatusResolved, StatusInvestigating, false},
		{StatusClosed, StatusOpen, false},
		{StatusClosed, StatusResolved, false},
		{StatusClosed, StatusClosed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransition_Applies(t *testing.T) {
	t.Parallel()

	inc := &Incident{Status: StatusOpen}
	if err := Transition(inc, StatusInvestigating); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if inc.Status != StatusInvestigating {
		t.Errorf("status = %q, want %q", inc.Status, StatusInvestigating)
	}
}

func TestTransition_RejectsBackwards(t *testing.T) {
	t.Parallel()

	inc := &Incident{Status: StatusClosed}
	err := Transition(inc, StatusOpen)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if inc.Status != StatusClosed {
		t.Errorf("status mutated to %q", inc.Status)
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	t.Parallel()

	inc := &Incident{Status: StatusOpen}
	err := Transition(inc, Status("paused"))
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("err = %v, want ErrSchemaViolation", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusResolved, StatusClosed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusOpen, StatusInvestigating} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
