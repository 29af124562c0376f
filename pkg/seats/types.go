package seats

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is the lifecycle state of an invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
	InviteRevoked  InviteStatus = "revoked"
)

// Account is the identity record of a user: who they are and which plan they hold.
type Account struct {
	ID          uuid.UUID
	DisplayName string
	Email       string // notification address, never exposed in family views
	PlanID      *string
	TrialEndsAt *time.Time
	CreatedAt   time.Time
}

// HasActivePlan reports whether the account holds a plan that has not lapsed.
func (a Account) HasActivePlan(now time.Time) bool {
	if a.PlanID == nil {
		return false
	}
	return a.TrialEndsAt == nil || a.TrialEndsAt.After(now)
}

// TrialExpired reports whether the account is on a trial that ended at or before now.
func (a Account) TrialExpired(now time.Time) bool {
	return a.PlanID != nil && a.TrialEndsAt != nil && !a.TrialEndsAt.After(now)
}

// Family is the seat-sharing aggregate of one owner.
// MaxSeats includes the owner.
type Family struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	MaxSeats  int
	CreatedAt time.Time
}

// Member occupies one seat of a family.
type Member struct {
	ID        uuid.UUID
	FamilyID  uuid.UUID
	AccountID uuid.UUID
	JoinedAt  time.Time
}

// Invite is a single-use, time-boxed offer of one seat.
type Invite struct {
	ID        uuid.UUID
	FamilyID  uuid.UUID
	Token     string
	Email     string
	Status    InviteStatus
	ExpiresAt time.Time
	UsedBy    *uuid.UUID
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsOpen reports whether the invite can still be accepted at now.
func (i Invite) IsOpen(now time.Time) bool {
	return i.Status == InvitePending && i.ExpiresAt.After(now)
}

// InviteSummary is returned to the owner after an invite is created.
type InviteSummary struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlanChange classifies a plan event by its effect on seat capacity.
type PlanChange string

const (
	PlanUpgrade      PlanChange = "upgrade"
	PlanDowngrade    PlanChange = "downgrade"
	PlanUnchanged    PlanChange = "unchanged"
	PlanNoSharing    PlanChange = "no_sharing" // new plan has a single seat
	PlanCancelled    PlanChange = "cancelled"
	PlanTrialExpired PlanChange = "trial_expired"
)

// CascadeResult describes what a plan event did to the owner's family.
type CascadeResult struct {
	Change         PlanChange  `json:"change"`
	FamilyID       *uuid.UUID  `json:"family_id,omitempty"`
	MaxSeats       int         `json:"max_seats"`
	EvictedMembers []uuid.UUID `json:"evicted_members,omitempty"`
	RevokedInvites []uuid.UUID `json:"revoked_invites,omitempty"` // deleted invites when dissolved
	Dissolved      bool        `json:"dissolved"`
}

// TrialSweepReport summarizes one SweepExpiredTrials run.
type TrialSweepReport struct {
	Processed int            `json:"processed"`
	Expired   []uuid.UUID    `json:"expired"`
	Failures  []TrialFailure `json:"failures,omitempty"`
}

// TrialFailure records an owner whose trial cascade failed during a sweep.
type TrialFailure struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Kind    Kind      `json:"kind"`
	Error   string    `json:"error"`
}
