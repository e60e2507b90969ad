package plugin

import "fmt"

// lifecycleState is the control-thread call-sequence state. Transitions
// are linear except for the terminate loop back to created.
type lifecycleState int32

const (
	stateCreated lifecycleState = iota
	stateInactive
	stateActive
)

func (s lifecycleState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateInactive:
		return "initialized/inactive"
	case stateActive:
		return "initialized/active"
	default:
		return "unknown"
	}
}

// lifecycle guards call ordering. It is owned by the control thread; each
// transition takes the old state, checks it, and replaces it, so a failed
// transition leaves the machine exactly where it was.
type lifecycle struct {
	state lifecycleState
}

func (l *lifecycle) transition(op string, from, to lifecycleState) error {
	if l.state != from {
		return fmt.Errorf("%w: %s while %s", ErrSequenceViolation, op, l.state)
	}
	l.state = to
	return nil
}

func (l *lifecycle) initialize() error {
	return l.transition("initialize", stateCreated, stateInactive)
}

func (l *lifecycle) terminate() error {
	return l.transition("terminate", stateInactive, stateCreated)
}

func (l *lifecycle) activate() error {
	return l.transition("activate", stateInactive, stateActive)
}

func (l *lifecycle) deactivate() error {
	return l.transition("deactivate", stateActive, stateInactive)
}

func (l *lifecycle) requireInitialized(op string) error {
	if l.state == stateCreated {
		return fmt.Errorf("%w: %s before initialize", ErrSequenceViolation, op)
	}
	return nil
}

func (l *lifecycle) requireInactive(op string) error {
	if l.state != stateInactive {
		return fmt.Errorf("%w: %s while %s", ErrSequenceViolation, op, l.state)
	}
	return nil
}
