package statemachine

import (
	"context"
	"fmt"
)

// Guard evaluates whether a transition is allowed for the given runtime data.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Transition describes a state change triggered by an event.
type Transition[S, E comparable] struct {
	From   S
	Event  E
	To     S
	Guards []Guard[S, E] // all must pass
}

// TransitionOption configures a single transition.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// WithGuard adds a guard to a transition. Nil guards are ignored.
func WithGuard[S, E comparable](guard Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if guard != nil {
			t.Guards = append(t.Guards, guard)
		}
	}
}

// T is a shorthand constructor for a Transition.
func T[S, E comparable](from S, event E, to S, opts ...TransitionOption[S, E]) Transition[S, E] {
	t := Transition[S, E]{From: from, Event: event, To: to}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Table is an immutable transition table. Safe for concurrent use.
type Table[S, E comparable] struct {
	transitions map[S]map[E][]Transition[S, E]
}

// New builds a table from the given transitions.
// Two unguarded transitions for the same state and event are rejected since
// the second one could never fire.
func New[S, E comparable](transitions ...Transition[S, E]) (*Table[S, E], error) {
	t := &Table[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}

	for _, tr := range transitions {
		byEvent, ok := t.transitions[tr.From]
		if !ok {
			byEvent = make(map[E][]Transition[S, E])
			t.transitions[tr.From] = byEvent
		}
		for _, existing := range byEvent[tr.Event] {
			if len(existing.Guards) == 0 {
				return nil, fmt.Errorf("%w: %v on %v", ErrDuplicateTransition, tr.From, tr.Event)
			}
		}
		byEvent[tr.Event] = append(byEvent[tr.Event], tr)
	}

	return t, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew[S, E comparable](transitions ...Transition[S, E]) *Table[S, E] {
	t, err := New(transitions...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return t
}

// Next returns the state the event leads to from the given state.
func (t *Table[S, E]) Next(ctx context.Context, from S, event E, data any) (S, error) {
	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		return from, transitionError(from, event, ErrNoTransition)
	}

	// First transition with passing guards wins
	for _, tr := range candidates {
		if guardsPass(ctx, tr, data) {
			return tr.To, nil
		}
	}

	return from, transitionError(from, event, ErrTransitionRejected)
}

// Can reports whether the event may fire from the given state.
func (t *Table[S, E]) Can(ctx context.Context, from S, event E, data any) bool {
	_, err := t.Next(ctx, from, event, data)
	return err == nil
}

// IsTerminal reports whether no event can move a record out of the state.
func (t *Table[S, E]) IsTerminal(s S) bool {
	return len(t.transitions[s]) == 0
}

func guardsPass[S, E comparable](ctx context.Context, tr Transition[S, E], data any) bool {
	for _, g := range tr.Guards {
		if !g(ctx, tr.From, tr.Event, data) {
			return false
		}
	}
	return true
}
