package seats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Queries are the reads shared by Store and Tx. Outside a transaction they
// see the latest committed state and take no locks.
type Queries interface {
	// GetAccount returns ErrAccountNotFound if the account is unknown.
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	// GetFamily returns ErrFamilyNotFound if the family does not exist.
	GetFamily(ctx context.Context, id uuid.UUID) (Family, error)
	// GetFamilyByOwner returns ErrFamilyNotFound if the owner has no family.
	GetFamilyByOwner(ctx context.Context, ownerID uuid.UUID) (Family, error)
	// GetMember returns ErrMemberNotFound if the member does not exist.
	GetMember(ctx context.Context, id uuid.UUID) (Member, error)
	// GetMemberByAccount returns ErrMemberNotFound if the account is in no family.
	GetMemberByAccount(ctx context.Context, accountID uuid.UUID) (Member, error)
	// GetInvite returns ErrInviteNotFound if the invite does not exist.
	GetInvite(ctx context.Context, id uuid.UUID) (Invite, error)
	// GetInviteByToken returns ErrInviteNotFound if no invite carries token.
	GetInviteByToken(ctx context.Context, token string) (Invite, error)
	// ListMembers returns members ordered by joined_at, then id.
	ListMembers(ctx context.Context, familyID uuid.UUID) ([]Member, error)
	// ListPendingInvites returns pending invites expiring after now, oldest first.
	ListPendingInvites(ctx context.Context, familyID uuid.UUID, now time.Time) ([]Invite, error)
	// GetAccounts returns the known accounts among ids.
	GetAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Account, error)
}

// Tx is a unit of work. Writes become visible when the transaction commits.
type Tx interface {
	Queries

	// SetLockTimeout bounds how long lock acquisition in this transaction may wait.
	SetLockTimeout(ctx context.Context, d time.Duration) error
	// LockAccount takes an exclusive lock on the account row.
	LockAccount(ctx context.Context, id uuid.UUID) (Account, error)
	// LockFamily takes an exclusive lock on the family row.
	LockFamily(ctx context.Context, id uuid.UUID) (Family, error)
	// LockFamilyByOwner locks the family owned by ownerID.
	LockFamilyByOwner(ctx context.Context, ownerID uuid.UUID) (Family, error)

	UpsertAccount(ctx context.Context, account Account) error
	UpdateAccountPlan(ctx context.Context, id uuid.UUID, planID *string, trialEndsAt *time.Time) error

	CreateFamily(ctx context.Context, family Family) error
	UpdateFamilySeats(ctx context.Context, id uuid.UUID, maxSeats int) error
	// DeleteFamily removes the family together with its members and invites.
	DeleteFamily(ctx context.Context, id uuid.UUID) error

	InsertMember(ctx context.Context, member Member) error
	// DeleteMember returns ErrMemberNotFound if nothing was deleted.
	DeleteMember(ctx context.Context, id uuid.UUID) error

	InsertInvite(ctx context.Context, invite Invite) error
	// UpdateInviteStatus moves the invite from one status to another and
	// reports whether the row was in the expected status.
	UpdateInviteStatus(ctx context.Context, id uuid.UUID, from, to InviteStatus, usedBy *uuid.UUID, usedAt *time.Time) (bool, error)
}

// Store is the persistence boundary of the engine.
type Store interface {
	Queries

	// InTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Lock failures must be reported wrapped in
	// ErrTransient.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// ReadTx runs fn against one consistent snapshot without taking row
	// locks, so it neither waits for nor blocks writers.
	ReadTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error

	// ExpirePendingInvites marks every pending invite with expires_at <= now
	// as expired in one set-based statement and returns the number of rows changed.
	ExpirePendingInvites(ctx context.Context, now time.Time) (int64, error)

	// ListExpiredTrialOwners returns up to limit accounts with a plan whose
	// trial ended at or before now, oldest first, leaving out the skip ids.
	ListExpiredTrialOwners(ctx context.Context, now time.Time, limit int, skip []uuid.UUID) ([]uuid.UUID, error)
}

// PlanCatalog resolves a plan id to its seat capacity, owner included.
type PlanCatalog interface {
	Seats(planID string) (int, error)
}
