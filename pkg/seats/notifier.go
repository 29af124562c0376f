package seats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names a change users should hear about.
type Event string

const (
	EventInviteCreated   Event = "invite_created"
	EventInviteAccepted  Event = "invite_accepted"
	EventInvitesRevoked  Event = "invites_revoked"
	EventMemberRemoved   Event = "member_removed"
	EventMemberLeft      Event = "member_left"
	EventMemberEvicted   Event = "member_evicted"
	EventFamilyDissolved Event = "family_dissolved"
)

// Recipient is an account or a bare address a notification goes to.
type Recipient struct {
	AccountID   *uuid.UUID
	DisplayName string
	Email       string
}

// Notification is emitted after the transaction that caused it commits.
type Notification struct {
	Event      Event
	FamilyID   uuid.UUID
	OwnerName  string
	Recipients []Recipient
	Invite     *InviteSummary // set for EventInviteCreated
	OccurredAt time.Time
}

// Notifier delivers notifications. Delivery failures are logged by the
// engine and never undo the committed change.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error { return nil }

// outbox collects notifications during a transaction. It is discarded when
// the transaction rolls back.
type outbox []Notification

func (o *outbox) add(n Notification) {
	*o = append(*o, n)
}

func accountRecipient(a Account) Recipient {
	id := a.ID
	return Recipient{AccountID: &id, DisplayName: a.DisplayName, Email: a.Email}
}
