// Package memstore is an in-memory seats.Store for tests and local runs.
//
// Transactions are serialized by one store-wide mutex and work on a copy of
// the data that replaces the committed state only when the transaction
// succeeds, so a failed transaction leaves no trace. Unlike pgstore it does
// not coordinate multiple processes.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/seats"
)

// ErrConstraint is returned when a write would break a uniqueness or
// reference constraint.
var ErrConstraint = errors.New("memstore: constraint violation")

type state struct {
	accounts map[uuid.UUID]seats.Account
	families map[uuid.UUID]seats.Family
	members  map[uuid.UUID]seats.Member
	invites  map[uuid.UUID]seats.Invite
}

func (s *state) clone() *state {
	return &state{
		accounts: maps.Clone(s.accounts),
		families: maps.Clone(s.families),
		members:  maps.Clone(s.members),
		invites:  maps.Clone(s.invites),
	}
}

// Store implements seats.Store.
type Store struct {
	mu sync.Mutex // serializes writers
	st atomic.Pointer[state]
}

var _ seats.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.st.Store(&state{
		accounts: make(map[uuid.UUID]seats.Account),
		families: make(map[uuid.UUID]seats.Family),
		members:  make(map[uuid.UUID]seats.Member),
		invites:  make(map[uuid.UUID]seats.Invite),
	})
	return s
}

func (s *Store) read() view {
	return view{st: s.st.Load()}
}

// InTx implements seats.Store.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx seats.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.Load().clone()
	if err := fn(ctx, &tx{view: view{st: work}}); err != nil {
		return err
	}
	s.st.Store(work)
	return nil
}

// ReadTx implements seats.Store. Committed state is never modified in place,
// so fn reads one snapshot while writers keep committing.
func (s *Store) ReadTx(ctx context.Context, fn func(ctx context.Context, q seats.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s.read())
}

// ExpirePendingInvites implements seats.Store.
func (s *Store) ExpirePendingInvites(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.Load().clone()
	var n int64
	for id, inv := range work.invites {
		if inv.Status == seats.InvitePending && !inv.ExpiresAt.After(now) {
			inv.Status = seats.InviteExpired
			work.invites[id] = inv
			n++
		}
	}
	s.st.Store(work)
	return n, nil
}

// ListExpiredTrialOwners implements seats.Store.
func (s *Store) ListExpiredTrialOwners(ctx context.Context, now time.Time, limit int, skip []uuid.UUID) ([]uuid.UUID, error) {
	var expired []seats.Account
	for _, a := range s.read().st.accounts {
		if a.TrialExpired(now) && !slices.Contains(skip, a.ID) {
			expired = append(expired, a)
		}
	}
	slices.SortFunc(expired, func(a, b seats.Account) int {
		if c := a.TrialEndsAt.Compare(*b.TrialEndsAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})

	ids := make([]uuid.UUID, 0, min(len(expired), limit))
	for _, a := range expired {
		if len(ids) == limit {
			break
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (seats.Account, error) {
	return s.read().GetAccount(ctx, id)
}

func (s *Store) GetAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]seats.Account, error) {
	return s.read().GetAccounts(ctx, ids)
}

func (s *Store) GetFamily(ctx context.Context, id uuid.UUID) (seats.Family, error) {
	return s.read().GetFamily(ctx, id)
}

func (s *Store) GetFamilyByOwner(ctx context.Context, ownerID uuid.UUID) (seats.Family, error) {
	return s.read().GetFamilyByOwner(ctx, ownerID)
}

func (s *Store) GetMember(ctx context.Context, id uuid.UUID) (seats.Member, error) {
	return s.read().GetMember(ctx, id)
}

func (s *Store) GetMemberByAccount(ctx context.Context, accountID uuid.UUID) (seats.Member, error) {
	return s.read().GetMemberByAccount(ctx, accountID)
}

func (s *Store) GetInvite(ctx context.Context, id uuid.UUID) (seats.Invite, error) {
	return s.read().GetInvite(ctx, id)
}

func (s *Store) GetInviteByToken(ctx context.Context, token string) (seats.Invite, error) {
	return s.read().GetInviteByToken(ctx, token)
}

func (s *Store) ListMembers(ctx context.Context, familyID uuid.UUID) ([]seats.Member, error) {
	return s.read().ListMembers(ctx, familyID)
}

func (s *Store) ListPendingInvites(ctx context.Context, familyID uuid.UUID, now time.Time) ([]seats.Invite, error) {
	return s.read().ListPendingInvites(ctx, familyID, now)
}

// Snapshot returns copies of all families, members and invites. Tests use it
// to check ledger invariants.
func (s *Store) Snapshot() ([]seats.Family, []seats.Member, []seats.Invite) {
	st := s.read().st
	return slices.Collect(maps.Values(st.families)),
		slices.Collect(maps.Values(st.members)),
		slices.Collect(maps.Values(st.invites))
}

// view answers queries against one immutable state.
type view struct {
	st *state
}

func (v view) GetAccount(_ context.Context, id uuid.UUID) (seats.Account, error) {
	a, ok := v.st.accounts[id]
	if !ok {
		return seats.Account{}, seats.ErrAccountNotFound
	}
	return a, nil
}

func (v view) GetAccounts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]seats.Account, error) {
	out := make(map[uuid.UUID]seats.Account, len(ids))
	for _, id := range ids {
		if a, ok := v.st.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (v view) GetFamily(_ context.Context, id uuid.UUID) (seats.Family, error) {
	f, ok := v.st.families[id]
	if !ok {
		return seats.Family{}, seats.ErrFamilyNotFound
	}
	return f, nil
}

func (v view) GetFamilyByOwner(_ context.Context, ownerID uuid.UUID) (seats.Family, error) {
	for _, f := range v.st.families {
		if f.OwnerID == ownerID {
			return f, nil
		}
	}
	return seats.Family{}, seats.ErrFamilyNotFound
}

func (v view) GetMember(_ context.Context, id uuid.UUID) (seats.Member, error) {
	m, ok := v.st.members[id]
	if !ok {
		return seats.Member{}, seats.ErrMemberNotFound
	}
	return m, nil
}

func (v view) GetMemberByAccount(_ context.Context, accountID uuid.UUID) (seats.Member, error) {
	for _, m := range v.st.members {
		if m.AccountID == accountID {
			return m, nil
		}
	}
	return seats.Member{}, seats.ErrMemberNotFound
}

func (v view) GetInvite(_ context.Context, id uuid.UUID) (seats.Invite, error) {
	inv, ok := v.st.invites[id]
	if !ok {
		return seats.Invite{}, seats.ErrInviteNotFound
	}
	return inv, nil
}

func (v view) GetInviteByToken(_ context.Context, token string) (seats.Invite, error) {
	for _, inv := range v.st.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return seats.Invite{}, seats.ErrInviteNotFound
}

func (v view) ListMembers(_ context.Context, familyID uuid.UUID) ([]seats.Member, error) {
	var out []seats.Member
	for _, m := range v.st.members {
		if m.FamilyID == familyID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b seats.Member) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (v view) ListPendingInvites(_ context.Context, familyID uuid.UUID, now time.Time) ([]seats.Invite, error) {
	var out []seats.Invite
	for _, inv := range v.st.invites {
		if inv.FamilyID == familyID && inv.IsOpen(now) {
			out = append(out, inv)
		}
	}
	slices.SortFunc(out, func(a, b seats.Invite) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

// tx writes to the working copy of a transaction.
type tx struct {
	view
}

func (t *tx) SetLockTimeout(context.Context, time.Duration) error { return nil }

// Locks are implicit: the whole transaction holds the store mutex.
func (t *tx) LockAccount(ctx context.Context, id uuid.UUID) (seats.Account, error) {
	return t.GetAccount(ctx, id)
}

func (t *tx) LockFamily(ctx context.Context, id uuid.UUID) (seats.Family, error) {
	return t.GetFamily(ctx, id)
}

func (t *tx) LockFamilyByOwner(ctx context.Context, ownerID uuid.UUID) (seats.Family, error) {
	return t.GetFamilyByOwner(ctx, ownerID)
}

func (t *tx) UpsertAccount(_ context.Context, account seats.Account) error {
	t.st.accounts[account.ID] = account
	return nil
}

func (t *tx) UpdateAccountPlan(_ context.Context, id uuid.UUID, planID *string, trialEndsAt *time.Time) error {
	a, ok := t.st.accounts[id]
	if !ok {
		return seats.ErrAccountNotFound
	}
	a.PlanID = planID
	a.TrialEndsAt = trialEndsAt
	t.st.accounts[id] = a
	return nil
}

func (t *tx) CreateFamily(_ context.Context, family seats.Family) error {
	if _, ok := t.st.accounts[family.OwnerID]; !ok {
		return fmt.Errorf("%w: family owner %s does not exist", ErrConstraint, family.OwnerID)
	}
	for _, f := range t.st.families {
		if f.OwnerID == family.OwnerID {
			return fmt.Errorf("%w: owner %s already has a family", ErrConstraint, family.OwnerID)
		}
	}
	t.st.families[family.ID] = family
	return nil
}

func (t *tx) UpdateFamilySeats(_ context.Context, id uuid.UUID, maxSeats int) error {
	f, ok := t.st.families[id]
	if !ok {
		return seats.ErrFamilyNotFound
	}
	f.MaxSeats = maxSeats
	t.st.families[id] = f
	return nil
}

// DeleteFamily removes invites, then members, then the family row, the same
// order foreign keys would cascade in.
func (t *tx) DeleteFamily(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.families[id]; !ok {
		return seats.ErrFamilyNotFound
	}
	maps.DeleteFunc(t.st.invites, func(_ uuid.UUID, inv seats.Invite) bool { return inv.FamilyID == id })
	maps.DeleteFunc(t.st.members, func(_ uuid.UUID, m seats.Member) bool { return m.FamilyID == id })
	delete(t.st.families, id)
	return nil
}

func (t *tx) InsertMember(_ context.Context, member seats.Member) error {
	if _, ok := t.st.families[member.FamilyID]; !ok {
		return fmt.Errorf("%w: family %s does not exist", ErrConstraint, member.FamilyID)
	}
	for _, m := range t.st.members {
		if m.AccountID == member.AccountID {
			return fmt.Errorf("%w: account %s is already a member", ErrConstraint, member.AccountID)
		}
	}
	t.st.members[member.ID] = member
	return nil
}

func (t *tx) DeleteMember(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.members[id]; !ok {
		return seats.ErrMemberNotFound
	}
	delete(t.st.members, id)
	return nil
}

func (t *tx) InsertInvite(_ context.Context, invite seats.Invite) error {
	if _, ok := t.st.families[invite.FamilyID]; !ok {
		return fmt.Errorf("%w: family %s does not exist", ErrConstraint, invite.FamilyID)
	}
	for _, inv := range t.st.invites {
		if inv.Token == invite.Token {
			return fmt.Errorf("%w: duplicate invite token", ErrConstraint)
		}
	}
	t.st.invites[invite.ID] = invite
	return nil
}

func (t *tx) UpdateInviteStatus(_ context.Context, id uuid.UUID, from, to seats.InviteStatus, usedBy *uuid.UUID, usedAt *time.Time) (bool, error) {
	inv, ok := t.st.invites[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	inv.UsedBy = usedBy
	inv.UsedAt = usedAt
	t.st.invites[id] = inv
	return true, nil
}
