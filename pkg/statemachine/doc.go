// Package statemachine provides a small, type-safe transition table for
// modelling finite-state lifecycles of persisted records.
//
// Unlike an in-memory machine that owns its current state, a Table is
// stateless: callers keep the state in their own storage (a database column,
// a struct field) and ask the table which state an event leads to. This makes
// a single Table safe to share across goroutines and request handlers.
//
// # Usage
//
//	type Status string
//	type Event string
//
//	table := statemachine.MustNew(
//	    statemachine.T[Status, Event]("pending", "accept", "accepted"),
//	    statemachine.T[Status, Event]("pending", "revoke", "revoked"),
//	)
//
//	next, err := table.Next(ctx, "pending", "accept", nil)
//
// States without outgoing transitions are terminal; see [Table.IsTerminal].
//
// # Guards
//
// A transition may carry guards. The first transition for a (state, event)
// pair whose guards all pass wins, which allows guard-based branching:
//
//	statemachine.T[Status, Event]("pending", "accept", "accepted",
//	    statemachine.WithGuard[Status, Event](notExpired))
//
// # Error Handling
//
// Next fails with a [*TransitionError] that matches [ErrNoTransition] or
// [ErrTransitionRejected] under errors.Is.
package statemachine
