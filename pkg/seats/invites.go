package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

func (s *service) CreateInvite(ctx context.Context, cmd CreateInviteCommand) (InviteSummary, error) {
	if err := cmd.Validate(); err != nil {
		return InviteSummary{}, err
	}
	email := normalizeEmail(cmd.Email)

	var summary InviteSummary
	err := s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		now := s.clock()

		owner, err := tx.LockAccount(ctx, cmd.OwnerID)
		if errors.Is(err, ErrAccountNotFound) {
			return ErrForbidden
		}
		if err != nil {
			return err
		}
		if !owner.HasActivePlan(now) {
			return ErrForbidden
		}

		family, err := s.familyForInvites(ctx, tx, owner, now)
		if err != nil {
			return err
		}

		members, err := tx.ListMembers(ctx, family.ID)
		if err != nil {
			return err
		}
		pending, err := tx.ListPendingInvites(ctx, family.ID, now)
		if err != nil {
			return err
		}
		for _, inv := range pending {
			if inv.Email == email {
				return fmt.Errorf("%w: %s already has a pending invite", ErrValidation, email)
			}
		}

		ok, err := HasSlotFor(family, len(members), len(pending))
		if err != nil {
			return err
		}
		if !ok {
			return ErrCapacityExceeded
		}

		invite := Invite{
			ID:        uuid.New(),
			FamilyID:  family.ID,
			Token:     s.newToken(),
			Email:     email,
			Status:    InvitePending,
			ExpiresAt: now.Add(s.inviteTTL),
			CreatedAt: now,
		}
		if err := tx.InsertInvite(ctx, invite); err != nil {
			return err
		}

		summary = InviteSummary{ID: invite.ID, Token: invite.Token, Email: invite.Email, ExpiresAt: invite.ExpiresAt}
		out.add(Notification{
			Event:      EventInviteCreated,
			FamilyID:   family.ID,
			OwnerName:  owner.DisplayName,
			Recipients: []Recipient{{Email: email}},
			Invite:     &summary,
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return InviteSummary{}, s.fail(ctx, "create_invite", err, logger.AccountID(cmd.OwnerID))
	}

	s.log.InfoContext(ctx, "invite created", logger.AccountID(cmd.OwnerID), logger.InviteID(summary.ID))
	return summary, nil
}

// familyForInvites returns the owner's locked family, creating it on the
// first invite. The owner row must already be locked.
func (s *service) familyForInvites(ctx context.Context, tx Tx, owner Account, now time.Time) (Family, error) {
	family, err := tx.LockFamilyByOwner(ctx, owner.ID)
	if err == nil {
		return family, nil
	}
	if !errors.Is(err, ErrFamilyNotFound) {
		return Family{}, err
	}

	capacity, err := s.planSeats(*owner.PlanID)
	if err != nil {
		return Family{}, err
	}
	if capacity <= 1 {
		return Family{}, ErrCapacityExceeded
	}

	// Accounts seated in another family cannot start their own.
	if _, err := tx.GetMemberByAccount(ctx, owner.ID); err == nil {
		return Family{}, ErrAlreadyMember
	} else if !errors.Is(err, ErrMemberNotFound) {
		return Family{}, err
	}

	family = Family{ID: uuid.New(), OwnerID: owner.ID, MaxSeats: capacity, CreatedAt: now}
	if err := tx.CreateFamily(ctx, family); err != nil {
		return Family{}, err
	}
	s.log.InfoContext(ctx, "family created", logger.FamilyID(family.ID), logger.AccountID(owner.ID))
	return family, nil
}

// planSeats resolves the capacity of a plan the account already holds.
// An unknown plan here means the catalog and the identity records disagree.
func (s *service) planSeats(planID string) (int, error) {
	seats, err := s.catalog.Seats(planID)
	if err != nil {
		return 0, errors.Join(ErrConsistencyFault, err)
	}
	return seats, nil
}

func (s *service) RevokeInvite(ctx context.Context, cmd RevokeInviteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	invite, err := s.store.GetInviteByToken(ctx, cmd.Token)
	if err != nil {
		return s.fail(ctx, "revoke_invite", notFound(err))
	}

	err = s.inTx(ctx, func(ctx context.Context, tx Tx, _ *outbox) error {
		family, err := tx.LockFamily(ctx, invite.FamilyID)
		if err != nil {
			return notFound(err)
		}
		if err := AssertOwner(family, cmd.OwnerID); err != nil {
			return err
		}

		current, err := tx.GetInvite(ctx, invite.ID)
		if err != nil {
			return notFound(err)
		}
		_, err = revokeInvite(ctx, tx, current, s.clock())
		return err
	})
	if err != nil {
		return s.fail(ctx, "revoke_invite", err, logger.InviteID(invite.ID))
	}

	s.log.InfoContext(ctx, "invite revoked", logger.InviteID(invite.ID), logger.AccountID(cmd.OwnerID))
	return nil
}

// revokeInvite moves a pending invite to revoked. Terminal invites are left
// as they are. Reports whether the invite changed.
func revokeInvite(ctx context.Context, tx Tx, invite Invite, now time.Time) (bool, error) {
	if invite.Status.IsTerminal() {
		return false, nil
	}
	next, err := transition(ctx, invite, eventRevoke, now)
	if err != nil {
		return false, err
	}
	return tx.UpdateInviteStatus(ctx, invite.ID, invite.Status, next, nil, nil)
}
