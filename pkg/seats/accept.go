package seats

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

// AcceptInvite turns a pending invite into a seat for cmd.AccountID.
//
// Cheap checks run first without locks. The family row is then locked and
// every precondition is checked again, so two acceptances racing for the last
// seat are ordered by the lock and the second one sees the first one's member.
// Either one member is inserted and the invite is accepted, or nothing changes.
// An acceptor whose trial has lapsed loses their own family in the same
// transaction, exactly as the trial sweep would have done.
func (s *service) AcceptInvite(ctx context.Context, cmd AcceptInviteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	invite, err := s.store.GetInviteByToken(ctx, cmd.Token)
	if err != nil {
		return s.fail(ctx, "accept_invite", notFound(err), logger.AccountID(cmd.AccountID))
	}
	if !invite.IsOpen(s.clock()) {
		return s.fail(ctx, "accept_invite", ErrAlreadyUsedOrExpired, logger.InviteID(invite.ID))
	}

	var (
		member Member
		lapsed CascadeResult
	)
	err = s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		if s.lockTimeout > 0 {
			if err := tx.SetLockTimeout(ctx, s.lockTimeout); err != nil {
				return err
			}
		}

		family, err := tx.LockFamily(ctx, invite.FamilyID)
		if errors.Is(err, ErrFamilyNotFound) {
			// The family was dissolved and took its invites with it.
			return errors.Join(ErrNotFound, ErrInviteNotFound)
		}
		if err != nil {
			return err
		}

		now := s.clock()
		current, err := tx.GetInvite(ctx, invite.ID)
		if err != nil {
			return notFound(err)
		}
		next, err := transition(ctx, current, eventAccept, now)
		if err != nil {
			return err
		}

		if cmd.AccountID == family.OwnerID {
			return ErrAlreadyMember
		}
		acceptor, err := tx.LockAccount(ctx, cmd.AccountID)
		if err != nil {
			return notFound(err)
		}
		if acceptor.HasActivePlan(now) {
			return ErrHasActivePlan
		}
		if acceptor.TrialExpired(now) {
			// The lapsed trial has not been swept yet. Its family goes
			// first, in this transaction, so the acceptor never owns and
			// joins at the same time.
			if lapsed, err = s.cancel(ctx, tx, out, acceptor, PlanTrialExpired, now); err != nil {
				return err
			}
		} else if _, err := tx.LockFamilyByOwner(ctx, acceptor.ID); err == nil {
			return ErrHasActivePlan
		} else if !errors.Is(err, ErrFamilyNotFound) {
			return err
		}
		if _, err := tx.GetMemberByAccount(ctx, acceptor.ID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return err
		}

		members, err := tx.ListMembers(ctx, family.ID)
		if err != nil {
			return err
		}
		available, err := AvailableSeats(family, len(members))
		if err != nil {
			return err
		}
		if available == 0 {
			return ErrCapacityExceeded
		}

		member = Member{ID: uuid.New(), FamilyID: family.ID, AccountID: acceptor.ID, JoinedAt: now}
		if err := tx.InsertMember(ctx, member); err != nil {
			return err
		}
		usedBy := acceptor.ID
		changed, err := tx.UpdateInviteStatus(ctx, current.ID, current.Status, next, &usedBy, &now)
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyUsedOrExpired
		}

		owner, err := tx.GetAccount(ctx, family.OwnerID)
		if err != nil {
			return err
		}
		out.add(Notification{
			Event:      EventInviteAccepted,
			FamilyID:   family.ID,
			OwnerName:  owner.DisplayName,
			Recipients: []Recipient{accountRecipient(owner)},
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return s.fail(ctx, "accept_invite", err, logger.InviteID(invite.ID), logger.AccountID(cmd.AccountID))
	}

	if lapsed.Change == PlanTrialExpired {
		s.logCascade(ctx, cmd.AccountID, lapsed)
	}
	s.log.InfoContext(ctx, "invite accepted",
		logger.InviteID(invite.ID),
		logger.FamilyID(member.FamilyID),
		logger.AccountID(cmd.AccountID),
	)
	return nil
}
