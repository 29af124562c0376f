// Package seats implements subscription seat allocation: an owner with a
// multi-seat plan shares seats with other accounts through email invites.
//
// # Model
//
// A Family belongs to exactly one owner and holds MaxSeats seats, the owner's
// included. Members occupy the other seats. Invites offer a seat to an email
// address and move forward only:
//
//	pending -> accepted | expired | revoked
//
// At every committed state
//
//	members + 1 <= MaxSeats
//	pending <= MaxSeats - 1 - members
//
// # Concurrency
//
// The family row is the single serialization point. Every operation that
// changes a family's members or invites first locks that row through the
// Store (SELECT ... FOR UPDATE in pgstore), so two acceptances racing for the
// last seat are ordered and the loser gets ErrCapacityExceeded. Families never
// block each other. Lock timeouts and deadlocks surface as ErrTransient.
//
// # Plan events
//
// ApplyPlanChange, CancelPlan and ExpireTrial keep the family in line with
// the owner's plan: upgrades raise MaxSeats, downgrades evict the most
// recently joined members and revoke invites that no longer fit, and
// cancellation or trial expiry delete the family with its members and invites.
//
// # Errors
//
// Every returned error matches one of the package sentinels with errors.Is,
// and KindOf gives its stable machine-readable Kind.
//
// # Notifications
//
// Notifications are queued inside the transaction and handed to the Notifier
// only after commit, so no I/O happens while a family is locked.
//
// Usage:
//
//	svc, err := seats.NewService(pgstore.New(pool), plans.Default(),
//	    seats.WithLogger(log),
//	    seats.WithNotifier(mailnotify.New(sender, cfg)),
//	)
//	summary, err := svc.CreateInvite(ctx, seats.CreateInviteCommand{OwnerID: owner, Email: "kid@example.com"})
//	err = svc.AcceptInvite(ctx, seats.AcceptInviteCommand{AccountID: kid, Token: summary.Token})
package seats
