package seats

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

// ApplyPlanChange records the owner's new plan and resizes their family to
// the plan's capacity in one transaction. Replaying the same event is a no-op.
func (s *service) ApplyPlanChange(ctx context.Context, cmd PlanChangeCommand) (CascadeResult, error) {
	if err := cmd.Validate(); err != nil {
		return CascadeResult{}, err
	}
	planID := strings.TrimSpace(cmd.PlanID)
	if planID == "" {
		return s.CancelPlan(ctx, cmd.OwnerID)
	}

	capacity, err := s.catalog.Seats(planID)
	if err != nil {
		return CascadeResult{}, errors.Join(ErrValidation, err)
	}

	var result CascadeResult
	err = s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		now := s.clock()

		owner, err := s.lockOrCreateAccount(ctx, tx, cmd.OwnerID, now)
		if err != nil {
			return err
		}
		if err := tx.UpdateAccountPlan(ctx, owner.ID, &planID, cmd.TrialEndsAt); err != nil {
			return err
		}

		result, err = s.resize(ctx, tx, out, owner, capacity, now)
		return err
	})
	if err != nil {
		return CascadeResult{}, s.fail(ctx, "apply_plan_change", err, logger.AccountID(cmd.OwnerID))
	}

	s.logCascade(ctx, cmd.OwnerID, result)
	return result, nil
}

// CancelPlan removes the owner's plan and dissolves their family.
func (s *service) CancelPlan(ctx context.Context, ownerID uuid.UUID) (CascadeResult, error) {
	if ownerID == uuid.Nil {
		return CascadeResult{}, errors.Join(ErrValidation, errors.New("owner_id: field is required"))
	}

	var result CascadeResult
	err := s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		now := s.clock()

		owner, err := tx.LockAccount(ctx, ownerID)
		if errors.Is(err, ErrAccountNotFound) {
			result = CascadeResult{Change: PlanCancelled}
			return nil
		}
		if err != nil {
			return err
		}

		result, err = s.cancel(ctx, tx, out, owner, PlanCancelled, now)
		return err
	})
	if err != nil {
		return CascadeResult{}, s.fail(ctx, "cancel_plan", err, logger.AccountID(ownerID))
	}

	s.logCascade(ctx, ownerID, result)
	return result, nil
}

// ExpireTrial runs the cancellation cascade for an owner whose trial ended
// at or before now. Owners with a running trial or without one are left alone.
func (s *service) ExpireTrial(ctx context.Context, ownerID uuid.UUID, now time.Time) (CascadeResult, error) {
	var result CascadeResult
	err := s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		owner, err := tx.LockAccount(ctx, ownerID)
		if err != nil {
			return notFound(err)
		}
		if !owner.TrialExpired(now) {
			result = CascadeResult{Change: PlanUnchanged}
			return nil
		}

		result, err = s.cancel(ctx, tx, out, owner, PlanTrialExpired, now)
		return err
	})
	if err != nil {
		return CascadeResult{}, err
	}

	if result.Change == PlanTrialExpired {
		s.logCascade(ctx, ownerID, result)
	}
	return result, nil
}

func (s *service) lockOrCreateAccount(ctx context.Context, tx Tx, id uuid.UUID, now time.Time) (Account, error) {
	account, err := tx.LockAccount(ctx, id)
	if !errors.Is(err, ErrAccountNotFound) {
		return account, err
	}
	// Billing events can arrive before the account is registered.
	account = Account{ID: id, CreatedAt: now}
	if err := tx.UpsertAccount(ctx, account); err != nil {
		return Account{}, err
	}
	return tx.LockAccount(ctx, id)
}

// cancel dissolves the owner's family, if any, and clears their plan.
func (s *service) cancel(ctx context.Context, tx Tx, out *outbox, owner Account, change PlanChange, now time.Time) (CascadeResult, error) {
	result := CascadeResult{Change: change}

	family, err := tx.LockFamilyByOwner(ctx, owner.ID)
	switch {
	case err == nil:
		if result, err = s.dissolve(ctx, tx, out, owner, family, now); err != nil {
			return CascadeResult{}, err
		}
		result.Change = change
	case !errors.Is(err, ErrFamilyNotFound):
		return CascadeResult{}, err
	}

	if err := tx.UpdateAccountPlan(ctx, owner.ID, nil, nil); err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

// resize brings the owner's family in line with a new capacity.
// Members are evicted newest first until they fit. Pending invites are all
// revoked when no free seat remains, otherwise only the newest ones that no
// longer fit are.
func (s *service) resize(ctx context.Context, tx Tx, out *outbox, owner Account, capacity int, now time.Time) (CascadeResult, error) {
	family, err := tx.LockFamilyByOwner(ctx, owner.ID)
	if errors.Is(err, ErrFamilyNotFound) {
		return CascadeResult{Change: PlanUnchanged, MaxSeats: capacity}, nil
	}
	if err != nil {
		return CascadeResult{}, err
	}

	if capacity <= 1 {
		result, err := s.dissolve(ctx, tx, out, owner, family, now)
		result.Change = PlanNoSharing
		result.MaxSeats = capacity
		return result, err
	}

	result := CascadeResult{Change: PlanUnchanged, FamilyID: &family.ID, MaxSeats: capacity}
	switch {
	case capacity > family.MaxSeats:
		result.Change = PlanUpgrade
	case capacity < family.MaxSeats:
		result.Change = PlanDowngrade
	}
	if capacity != family.MaxSeats {
		if err := tx.UpdateFamilySeats(ctx, family.ID, capacity); err != nil {
			return CascadeResult{}, err
		}
		family.MaxSeats = capacity
	}

	members, err := tx.ListMembers(ctx, family.ID)
	if err != nil {
		return CascadeResult{}, err
	}
	evict := evictionOrder(members)
	if excess := len(members) - (capacity - 1); excess > 0 {
		evict = evict[:excess]
	} else {
		evict = nil
	}

	if len(evict) > 0 {
		ids := make([]uuid.UUID, 0, len(evict))
		for _, m := range evict {
			if err := tx.DeleteMember(ctx, m.ID); err != nil {
				return CascadeResult{}, err
			}
			result.EvictedMembers = append(result.EvictedMembers, m.ID)
			ids = append(ids, m.AccountID)
		}
		accounts, err := tx.GetAccounts(ctx, ids)
		if err != nil {
			return CascadeResult{}, err
		}
		if recipients := recipientsOf(accounts, ids); len(recipients) > 0 {
			out.add(Notification{
				Event:      EventMemberEvicted,
				FamilyID:   family.ID,
				OwnerName:  owner.DisplayName,
				Recipients: recipients,
				OccurredAt: now,
			})
		}
	}

	available, err := AvailableSeats(family, len(members)-len(evict))
	if err != nil {
		return CascadeResult{}, err
	}
	pending, err := tx.ListPendingInvites(ctx, family.ID, now)
	if err != nil {
		return CascadeResult{}, err
	}

	var revoke []Invite
	switch {
	case available == 0:
		revoke = pending
	case len(pending) > available:
		revoke = pending[available:]
	}

	var invitees []Recipient
	for _, inv := range revoke {
		changed, err := revokeInvite(ctx, tx, inv, now)
		if err != nil {
			return CascadeResult{}, err
		}
		if changed {
			result.RevokedInvites = append(result.RevokedInvites, inv.ID)
			invitees = append(invitees, Recipient{Email: inv.Email})
		}
	}
	if len(invitees) > 0 {
		out.add(Notification{
			Event:      EventInvitesRevoked,
			FamilyID:   family.ID,
			OwnerName:  owner.DisplayName,
			Recipients: invitees,
			OccurredAt: now,
		})
	}

	return result, checkInvariants(family, len(members)-len(evict), len(pending)-len(result.RevokedInvites))
}

// dissolve deletes the family. Members and invites go with it.
func (s *service) dissolve(ctx context.Context, tx Tx, out *outbox, owner Account, family Family, now time.Time) (CascadeResult, error) {
	members, err := tx.ListMembers(ctx, family.ID)
	if err != nil {
		return CascadeResult{}, err
	}
	pending, err := tx.ListPendingInvites(ctx, family.ID, now)
	if err != nil {
		return CascadeResult{}, err
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.AccountID)
	}
	accounts, err := tx.GetAccounts(ctx, ids)
	if err != nil {
		return CascadeResult{}, err
	}

	if err := tx.DeleteFamily(ctx, family.ID); err != nil {
		return CascadeResult{}, err
	}

	result := CascadeResult{FamilyID: &family.ID, Dissolved: true}
	for _, m := range members {
		result.EvictedMembers = append(result.EvictedMembers, m.ID)
	}
	var invitees []Recipient
	for _, inv := range pending {
		result.RevokedInvites = append(result.RevokedInvites, inv.ID)
		invitees = append(invitees, Recipient{Email: inv.Email})
	}

	if recipients := recipientsOf(accounts, ids); len(recipients) > 0 {
		out.add(Notification{
			Event:      EventFamilyDissolved,
			FamilyID:   family.ID,
			OwnerName:  owner.DisplayName,
			Recipients: recipients,
			OccurredAt: now,
		})
	}
	if len(invitees) > 0 {
		out.add(Notification{
			Event:      EventInvitesRevoked,
			FamilyID:   family.ID,
			OwnerName:  owner.DisplayName,
			Recipients: invitees,
			OccurredAt: now,
		})
	}
	return result, nil
}

// evictionOrder returns members most recently joined first. Equal join times
// are ordered by member id, higher first.
func evictionOrder(members []Member) []Member {
	ordered := slices.Clone(members)
	slices.SortFunc(ordered, func(a, b Member) int {
		if c := b.JoinedAt.Compare(a.JoinedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	return ordered
}

func recipientsOf(accounts map[uuid.UUID]Account, ids []uuid.UUID) []Recipient {
	recipients := make([]Recipient, 0, len(ids))
	for _, id := range ids {
		if a, ok := accounts[id]; ok {
			recipients = append(recipients, accountRecipient(a))
		}
	}
	return recipients
}

func (s *service) logCascade(ctx context.Context, ownerID uuid.UUID, r CascadeResult) {
	s.log.InfoContext(ctx, "plan cascade applied",
		logger.AccountID(ownerID),
		logger.Event(string(r.Change)),
		logger.Count(int64(len(r.EvictedMembers))),
		slog.Int("revoked_invites", len(r.RevokedInvites)),
		slog.Bool("dissolved", r.Dissolved),
	)
}
