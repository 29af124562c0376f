package seats

import (
	"context"
	"errors"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

func (s *service) RemoveMember(ctx context.Context, cmd RemoveMemberCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	member, err := s.store.GetMember(ctx, cmd.MemberID)
	if err != nil {
		return s.fail(ctx, "remove_member", notFound(err))
	}

	err = s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		family, err := tx.LockFamily(ctx, member.FamilyID)
		if err != nil {
			return notFound(err)
		}
		if err := AssertOwner(family, cmd.OwnerID); err != nil {
			return err
		}
		if err := tx.DeleteMember(ctx, member.ID); err != nil {
			return notFound(err)
		}

		return s.queueMemberNotice(ctx, tx, out, EventMemberRemoved, family, member)
	})
	if err != nil {
		return s.fail(ctx, "remove_member", err, logger.AccountID(cmd.OwnerID))
	}

	s.log.InfoContext(ctx, "member removed", logger.FamilyID(member.FamilyID), logger.AccountID(member.AccountID))
	return nil
}

func (s *service) LeaveFamily(ctx context.Context, cmd LeaveFamilyCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	member, err := s.store.GetMemberByAccount(ctx, cmd.AccountID)
	if err != nil {
		return s.fail(ctx, "leave_family", notFound(err))
	}

	err = s.inTx(ctx, func(ctx context.Context, tx Tx, out *outbox) error {
		family, err := tx.LockFamily(ctx, member.FamilyID)
		if err != nil {
			return notFound(err)
		}
		if err := tx.DeleteMember(ctx, member.ID); err != nil {
			return notFound(err)
		}

		owner, err := tx.GetAccount(ctx, family.OwnerID)
		if err != nil {
			return err
		}
		out.add(Notification{
			Event:      EventMemberLeft,
			FamilyID:   family.ID,
			OwnerName:  owner.DisplayName,
			Recipients: []Recipient{accountRecipient(owner)},
			OccurredAt: s.clock(),
		})
		return nil
	})
	if err != nil {
		return s.fail(ctx, "leave_family", err, logger.AccountID(cmd.AccountID))
	}

	s.log.InfoContext(ctx, "member left", logger.FamilyID(member.FamilyID), logger.AccountID(cmd.AccountID))
	return nil
}

// queueMemberNotice tells a removed member which family they lost a seat in.
func (s *service) queueMemberNotice(ctx context.Context, tx Tx, out *outbox, event Event, family Family, member Member) error {
	owner, err := tx.GetAccount(ctx, family.OwnerID)
	if err != nil {
		return err
	}
	account, err := tx.GetAccount(ctx, member.AccountID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	out.add(Notification{
		Event:      event,
		FamilyID:   family.ID,
		OwnerName:  owner.DisplayName,
		Recipients: []Recipient{accountRecipient(account)},
		OccurredAt: s.clock(),
	})
	return nil
}
