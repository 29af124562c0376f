package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTransition = errors.New("duplicate transition for state and event")
	ErrNoTransition        = errors.New("no transition available")
	ErrTransitionRejected  = errors.New("transition rejected by guards")
)

// TransitionError reports a failed Next call. It unwraps to ErrNoTransition
// or ErrTransitionRejected.
type TransitionError struct {
	From  string
	Event string
	err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: state %q, event %q", e.err, e.From, e.Event)
}

func (e *TransitionError) Unwrap() error { return e.err }

func transitionError[S, E comparable](from S, event E, err error) *TransitionError {
	return &TransitionError{From: fmt.Sprint(from), Event: fmt.Sprint(event), err: err}
}
