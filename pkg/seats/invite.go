package seats

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/seatshare/pkg/statemachine"
)

type inviteEvent string

const (
	eventAccept inviteEvent = "accept"
	eventExpire inviteEvent = "expire"
	eventRevoke inviteEvent = "revoke"
)

type inviteAt struct {
	invite Invite
	now    time.Time
}

func notExpired(_ context.Context, _ InviteStatus, _ inviteEvent, data any) bool {
	at, ok := data.(inviteAt)
	return ok && at.invite.ExpiresAt.After(at.now)
}

// inviteLifecycle is the forward-only invite state machine. Every state but
// pending is terminal.
var inviteLifecycle = statemachine.MustNew(
	statemachine.T(InvitePending, eventAccept, InviteAccepted,
		statemachine.WithGuard[InviteStatus, inviteEvent](notExpired)),
	statemachine.T(InvitePending, eventExpire, InviteExpired),
	statemachine.T(InvitePending, eventRevoke, InviteRevoked),
)

// IsTerminal reports whether no further transition can leave status.
func (s InviteStatus) IsTerminal() bool {
	return inviteLifecycle.IsTerminal(s)
}

// Valid reports whether s is a known status.
func (s InviteStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteExpired, InviteRevoked:
		return true
	}
	return false
}

// transition applies event to the invite and returns the resulting status.
// Any rejected transition is reported as ErrAlreadyUsedOrExpired.
func transition(ctx context.Context, inv Invite, event inviteEvent, now time.Time) (InviteStatus, error) {
	next, err := inviteLifecycle.Next(ctx, inv.Status, event, inviteAt{invite: inv, now: now})
	if err != nil {
		return inv.Status, errors.Join(ErrAlreadyUsedOrExpired, err)
	}
	return next, nil
}
