package seats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	open := Invite{Status: InvitePending, ExpiresAt: now.Add(time.Hour)}

	tests := []struct {
		name   string
		invite Invite
		event  inviteEvent
		want   InviteStatus
		ok     bool
	}{
		{"accept open invite", open, eventAccept, InviteAccepted, true},
		{"accept at deadline", Invite{Status: InvitePending, ExpiresAt: now}, eventAccept, InvitePending, false},
		{"expire pending", open, eventExpire, InviteExpired, true},
		{"revoke pending", open, eventRevoke, InviteRevoked, true},
		{"accept accepted", Invite{Status: InviteAccepted, ExpiresAt: now.Add(time.Hour)}, eventAccept, InviteAccepted, false},
		{"revoke expired", Invite{Status: InviteExpired}, eventRevoke, InviteExpired, false},
		{"expire revoked", Invite{Status: InviteRevoked}, eventExpire, InviteRevoked, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := transition(context.Background(), tt.invite, tt.event, now)
			assert.Equal(t, tt.want, got)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyUsedOrExpired)
		})
	}
}

func TestInviteStatus(t *testing.T) {
	t.Parallel()

	assert.False(t, InvitePending.IsTerminal())
	for _, s := range []InviteStatus{InviteAccepted, InviteExpired, InviteRevoked} {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, InviteStatus("used").Valid())
}

func TestEvictionOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")

	members := []Member{
		{ID: uuid.New(), JoinedAt: base},
		{ID: low, JoinedAt: base.Add(time.Hour)},
		{ID: high, JoinedAt: base.Add(time.Hour)},
		{ID: uuid.New(), JoinedAt: base.Add(time.Minute)},
	}

	ordered := evictionOrder(members)
	require.Len(t, ordered, 4)
	assert.Equal(t, high, ordered[0].ID)
	assert.Equal(t, low, ordered[1].ID)
	assert.Equal(t, members[3].ID, ordered[2].ID)
	assert.Equal(t, members[0].ID, ordered[3].ID)
	assert.Equal(t, low, members[1].ID, "input is not reordered")
}
