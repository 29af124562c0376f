package seats

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// FamilyView is what an account sees of its family. At most one field is set.
// Views never carry member or owner emails or account ids.
type FamilyView struct {
	Owned      *OwnedFamilyView `json:"owned_family"`
	Membership *MembershipView  `json:"membership"`
}

// OwnedFamilyView is the owner's view of their family.
type OwnedFamilyView struct {
	FamilyID       uuid.UUID       `json:"family_id"`
	MaxSeats       int             `json:"max_seats"`
	AvailableSeats int             `json:"available_seats"`
	Members        []MemberView    `json:"members"`
	Invites        []InviteSummary `json:"invites"`
}

// MemberView identifies a member by display name only.
type MemberView struct {
	MemberID    uuid.UUID `json:"member_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MembershipView is a member's view of the family they belong to.
type MembershipView struct {
	FamilyID  uuid.UUID `json:"family_id"`
	MemberID  uuid.UUID `json:"member_id"`
	OwnerName string    `json:"owner_name"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (s *service) GetFamilyView(ctx context.Context, accountID uuid.UUID) (FamilyView, error) {
	if accountID == uuid.Nil {
		return FamilyView{}, errors.Join(ErrValidation, errors.New("account_id: field is required"))
	}

	// One snapshot gives member and invite counts that belong to the same
	// committed state without queueing behind acceptances.
	var view FamilyView
	err := s.store.ReadTx(ctx, func(ctx context.Context, q Queries) error {
		family, err := q.GetFamilyByOwner(ctx, accountID)
		switch {
		case err == nil:
			view.Owned, err = s.ownedView(ctx, q, family)
			return err
		case !errors.Is(err, ErrFamilyNotFound):
			return err
		}

		member, err := q.GetMemberByAccount(ctx, accountID)
		switch {
		case errors.Is(err, ErrMemberNotFound):
			return nil
		case err != nil:
			return err
		}
		view.Membership, err = s.membershipView(ctx, q, member)
		return err
	})
	if err != nil {
		return FamilyView{}, s.fail(ctx, "get_family_view", err)
	}
	return view, nil
}

func (s *service) ownedView(ctx context.Context, q Queries, family Family) (*OwnedFamilyView, error) {
	members, err := q.ListMembers(ctx, family.ID)
	if err != nil {
		return nil, err
	}
	pending, err := q.ListPendingInvites(ctx, family.ID, s.clock())
	if err != nil {
		return nil, err
	}
	available, err := AvailableSeats(family, len(members))
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.AccountID)
	}
	accounts, err := q.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &OwnedFamilyView{
		FamilyID:       family.ID,
		MaxSeats:       family.MaxSeats,
		AvailableSeats: available,
		Members:        make([]MemberView, 0, len(members)),
		Invites:        make([]InviteSummary, 0, len(pending)),
	}
	for _, m := range members {
		view.Members = append(view.Members, MemberView{
			MemberID:    m.ID,
			DisplayName: accounts[m.AccountID].DisplayName,
			JoinedAt:    m.JoinedAt,
		})
	}
	for _, inv := range pending {
		view.Invites = append(view.Invites, InviteSummary{
			ID:        inv.ID,
			Token:     inv.Token,
			Email:     inv.Email,
			ExpiresAt: inv.ExpiresAt,
		})
	}
	return view, nil
}

func (s *service) membershipView(ctx context.Context, q Queries, member Member) (*MembershipView, error) {
	family, err := q.GetFamily(ctx, member.FamilyID)
	if err != nil {
		return nil, err
	}
	owner, err := q.GetAccount(ctx, family.OwnerID)
	if err != nil {
		return nil, err
	}
	return &MembershipView{
		FamilyID:  family.ID,
		MemberID:  member.ID,
		OwnerName: owner.DisplayName,
		JoinedAt:  member.JoinedAt,
	}, nil
}
