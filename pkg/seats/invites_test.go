package seats_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seatshare/pkg/seats"
)

func TestCreateInvite(t *testing.T) {
	t.Parallel()

	t.Run("creates the family on first invite", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		owner := f.owner("owner", "quad")

		_, err := f.store.GetFamilyByOwner(f.ctx, owner)
		require.ErrorIs(t, err, seats.ErrFamilyNotFound)

		inv := f.invite(owner, " Guest@Example.com ")
		assert.Equal(t, "guest@example.com", inv.Email)
		assert.Len(t, inv.Token, seats.TokenLength)
		assert.NoError(t, seats.ValidateToken(inv.Token))
		assert.Equal(t, f.clock.Now().Add(seats.DefaultInviteTTL), inv.ExpiresAt)

		family := f.family(owner)
		assert.Equal(t, 4, family.MaxSeats)

		n, ok := f.outbox.Last(seats.EventInviteCreated)
		require.True(t, ok)
		assert.Equal(t, "owner", n.OwnerName)
		require.Len(t, n.Recipients, 1)
		assert.Equal(t, "guest@example.com", n.Recipients[0].Email)
		require.NotNil(t, n.Invite)
		assert.Equal(t, inv.Token, n.Invite.Token)
	})

	t.Run("custom ttl", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, seats.WithInviteTTL(time.Hour))
		owner := f.owner("owner", "quad")
		inv := f.invite(owner, "guest@example.com")
		assert.Equal(t, f.clock.Now().Add(time.Hour), inv.ExpiresAt)
	})

	tests := []struct {
		name  string
		setup func(f *fixture) seats.CreateInviteCommand
		kind  seats.Kind
	}{
		{
			name: "invalid email",
			setup: func(f *fixture) seats.CreateInviteCommand {
				return seats.CreateInviteCommand{OwnerID: f.owner("owner", "quad"), Email: "not-an-email"}
			},
			kind: seats.KindValidation,
		},
		{
			name: "missing owner",
			setup: func(*fixture) seats.CreateInviteCommand {
				return seats.CreateInviteCommand{Email: "guest@example.com"}
			},
			kind: seats.KindValidation,
		},
		{
			name: "unknown account",
			setup: func(*fixture) seats.CreateInviteCommand {
				return seats.CreateInviteCommand{OwnerID: uuid.New(), Email: "guest@example.com"}
			},
			kind: seats.KindForbidden,
		},
		{
			name: "account without plan",
			setup: func(f *fixture) seats.CreateInviteCommand {
				return seats.CreateInviteCommand{OwnerID: f.account("free"), Email: "guest@example.com"}
			},
			kind: seats.KindForbidden,
		},
		{
			name: "single seat plan",
			setup: func(f *fixture) seats.CreateInviteCommand {
				return seats.CreateInviteCommand{OwnerID: f.owner("owner", "solo"), Email: "guest@example.com"}
			},
			kind: seats.KindCapacityExceeded,
		},
		{
			name: "every seat promised",
			setup: func(f *fixture) seats.CreateInviteCommand {
				owner := f.owner("owner", "duo")
				f.invite(owner, "first@example.com")
				return seats.CreateInviteCommand{OwnerID: owner, Email: "second@example.com"}
			},
			kind: seats.KindCapacityExceeded,
		},
		{
			name: "every seat taken",
			setup: func(f *fixture) seats.CreateInviteCommand {
				owner := f.owner("owner", "duo")
				f.join(owner, "member")
				return seats.CreateInviteCommand{OwnerID: owner, Email: "second@example.com"}
			},
			kind: seats.KindCapacityExceeded,
		},
		{
			name: "duplicate pending email",
			setup: func(f *fixture) seats.CreateInviteCommand {
				owner := f.owner("owner", "quad")
				f.invite(owner, "guest@example.com")
				return seats.CreateInviteCommand{OwnerID: owner, Email: "GUEST@example.com"}
			},
			kind: seats.KindValidation,
		},
		{
			name: "trial ended",
			setup: func(f *fixture) seats.CreateInviteCommand {
				owner := f.account("owner")
				ends := f.clock.Now().Add(time.Hour)
				_, err := f.svc.ApplyPlanChange(f.ctx, seats.PlanChangeCommand{OwnerID: owner, PlanID: "quad", TrialEndsAt: &ends})
				require.NoError(f.t, err)
				f.clock.Advance(2 * time.Hour)
				return seats.CreateInviteCommand{OwnerID: owner, Email: "guest@example.com"}
			},
			kind: seats.KindForbidden,
		},
		{
			name: "owner seated elsewhere",
			setup: func(f *fixture) seats.CreateInviteCommand {
				host := f.owner("host", "quad")
				guest := f.join(host, "guest")
				_, err := f.svc.ApplyPlanChange(f.ctx, seats.PlanChangeCommand{OwnerID: guest, PlanID: "quad"})
				require.NoError(f.t, err)
				return seats.CreateInviteCommand{OwnerID: guest, Email: "friend@example.com"}
			},
			kind: seats.KindAlreadyMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			cmd := tt.setup(f)

			_, err := f.svc.CreateInvite(f.ctx, cmd)
			require.Error(t, err)
			assert.Equal(t, tt.kind, seats.KindOf(err), err.Error())
		})
	}
}

func TestCreateInvite_ExpiredInvitesFreeTheirSeat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner := f.owner("owner", "duo")
	f.invite(owner, "first@example.com")

	f.clock.Advance(seats.DefaultInviteTTL)

	// No sweep has run: the stale invite still reads pending but holds no seat.
	inv := f.invite(owner, "second@example.com")
	assert.NotEmpty(t, inv.Token)
}

func TestRevokeInvite(t *testing.T) {
	t.Parallel()

	t.Run("revokes and is idempotent", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		owner := f.owner("owner", "duo")
		inv := f.invite(owner, "guest@example.com")

		cmd := seats.RevokeInviteCommand{OwnerID: owner, Token: inv.Token}
		require.NoError(t, f.svc.RevokeInvite(f.ctx, cmd))
		require.NoError(t, f.svc.RevokeInvite(f.ctx, cmd))

		stored, err := f.store.GetInvite(f.ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, seats.InviteRevoked, stored.Status)

		// The seat is free again.
		f.invite(owner, "other@example.com")
	})

	t.Run("accepted invites stay accepted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		owner := f.owner("owner", "quad")
		guest := f.account("guest")
		inv := f.invite(owner, "guest@example.com")
		require.NoError(t, f.svc.AcceptInvite(f.ctx, seats.AcceptInviteCommand{AccountID: guest, Token: inv.Token}))

		require.NoError(t, f.svc.RevokeInvite(f.ctx, seats.RevokeInviteCommand{OwnerID: owner, Token: inv.Token}))

		stored, err := f.store.GetInvite(f.ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, seats.InviteAccepted, stored.Status)
	})

	t.Run("other owner is forbidden", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		owner := f.owner("owner", "quad")
		other := f.owner("other", "quad")
		inv := f.invite(owner, "guest@example.com")

		err := f.svc.RevokeInvite(f.ctx, seats.RevokeInviteCommand{OwnerID: other, Token: inv.Token})
		assert.ErrorIs(t, err, seats.ErrForbidden)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		err := f.svc.RevokeInvite(f.ctx, seats.RevokeInviteCommand{OwnerID: uuid.New(), Token: "k0x9w2m1p8q7r6s5t4u3v2w1x0y9z8ab"})
		assert.Equal(t, seats.KindNotFound, seats.KindOf(err))
	})

	t.Run("uuid token", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		err := f.svc.RevokeInvite(f.ctx, seats.RevokeInviteCommand{OwnerID: uuid.New(), Token: uuid.NewString()})
		assert.Equal(t, seats.KindValidation, seats.KindOf(err))
	})
}
