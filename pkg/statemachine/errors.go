package statemachine

import (
	"errors"
	"fmt"
)

var ErrDuplicateTransition = errors.New("statemachine: duplicate transition")

// ErrNoTransition indicates no transition is declared for the state/event pair.
type ErrNoTransition struct {
	State string
	Event string
}

func (e *ErrNoTransition) Error() string {
	return fmt.Sprintf("statemachine: no transition from state '%s' for event '%s'", e.State, e.Event)
}

// ErrRejected indicates a guard vetoed the transition.
type ErrRejected struct {
	State string
	Event string
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("statemachine: transition from state '%s' for event '%s' rejected by guard", e.State, e.Event)
}

func IsNoTransition(err error) bool {
	var e *ErrNoTransition
	return errors.As(err, &e)
}

func IsRejected(err error) bool {
	var e *ErrRejected
	return errors.As(err, &e)
}
