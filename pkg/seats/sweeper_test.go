package seats_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seatshare/pkg/seats"
	"github.com/dmitrymomot/seatshare/pkg/seats/memstore"
)

func TestSweepExpiredInvites(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner := f.owner("owner", "quad")
	first := f.invite(owner, "a@example.com")
	f.invite(owner, "b@example.com")
	f.clock.Advance(seats.DefaultInviteTTL / 2)
	fresh := f.invite(owner, "c@example.com")

	deadline := first.ExpiresAt
	n, err := f.svc.SweepExpiredInvites(f.ctx, deadline)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.svc.SweepExpiredInvites(f.ctx, deadline)
	require.NoError(t, err)
	assert.Zero(t, n, "a second run changes nothing")

	stored, err := f.store.GetInvite(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, seats.InviteExpired, stored.Status)

	stored, err = f.store.GetInvite(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, seats.InvitePending, stored.Status)
}

func TestSweepExpiredTrials(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ends := f.clock.Now().Add(time.Hour)
	trial := func(name string) uuid.UUID {
		id := f.account(name)
		_, err := f.svc.ApplyPlanChange(f.ctx, seats.PlanChangeCommand{OwnerID: id, PlanID: "quad", TrialEndsAt: &ends})
		require.NoError(t, err)
		return id
	}

	expiring := trial("expiring")
	f.join(expiring, "m1")
	later := f.account("later")
	laterEnds := ends.Add(24 * time.Hour)
	_, err := f.svc.ApplyPlanChange(f.ctx, seats.PlanChangeCommand{OwnerID: later, PlanID: "quad", TrialEndsAt: &laterEnds})
	require.NoError(t, err)
	paid := f.owner("paid", "quad")

	f.clock.Advance(2 * time.Hour)
	report, err := f.svc.SweepExpiredTrials(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, []uuid.UUID{expiring}, report.Expired)
	assert.Empty(t, report.Failures)

	_, err = f.store.GetFamilyByOwner(f.ctx, expiring)
	assert.ErrorIs(t, err, seats.ErrFamilyNotFound)
	for _, id := range []uuid.UUID{later, paid} {
		account, err := f.store.GetAccount(f.ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, account.PlanID)
	}

	report, err = f.svc.SweepExpiredTrials(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Empty(t, report.Expired)
}

// faultyStore fails every transaction that locks one particular account.
type faultyStore struct {
	*memstore.Store
	broken uuid.UUID
}

type faultyTx struct {
	seats.Tx
	broken uuid.UUID
}

func (s *faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx seats.Tx) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx seats.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, broken: s.broken})
	})
}

func (t faultyTx) LockAccount(ctx context.Context, id uuid.UUID) (seats.Account, error) {
	if id == t.broken {
		return seats.Account{}, errors.New("connection reset")
	}
	return t.Tx.LockAccount(ctx, id)
}

func TestSweepExpiredTrials_FailureIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ended := now.Add(-time.Hour)
	broken, healthy := uuid.New(), uuid.New()

	// Accounts are seeded through a healthy service first.
	store := &faultyStore{Store: memstore.New()}
	seed, err := seats.NewService(store.Store, catalog, seats.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	for _, id := range []uuid.UUID{broken, healthy} {
		_, err := seed.ApplyPlanChange(ctx, seats.PlanChangeCommand{OwnerID: id, PlanID: "quad", TrialEndsAt: &ended})
		require.NoError(t, err)
	}

	store.broken = broken
	svc, err := seats.NewService(store, catalog, seats.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	report, err := svc.SweepExpiredTrials(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, []uuid.UUID{healthy}, report.Expired)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken, report.Failures[0].OwnerID)
	assert.Equal(t, seats.KindInternal, report.Failures[0].Kind)

	account, err := store.GetAccount(ctx, broken)
	require.NoError(t, err)
	assert.NotNil(t, account.PlanID, "failed owner is left for the next sweep")
}

func TestSweepExpiredTrials_FailingOwnerDoesNotStarveOthers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	broken, healthy := uuid.New(), uuid.New()

	store := &faultyStore{Store: memstore.New()}
	seed, err := seats.NewService(store.Store, catalog, seats.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	for id, ended := range map[uuid.UUID]time.Time{
		broken:  now.Add(-2 * time.Hour),
		healthy: now.Add(-time.Hour),
	} {
		_, err := seed.ApplyPlanChange(ctx, seats.PlanChangeCommand{OwnerID: id, PlanID: "quad", TrialEndsAt: &ended})
		require.NoError(t, err)
	}

	store.broken = broken
	svc, err := seats.NewService(store, catalog,
		seats.WithClock(func() time.Time { return now }),
		seats.WithTrialSweepBatch(1),
	)
	require.NoError(t, err)

	// The oldest trial fails first.
	report, err := svc.SweepExpiredTrials(ctx, now)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken, report.Failures[0].OwnerID)

	// The next run moves on instead of retrying it.
	report, err = svc.SweepExpiredTrials(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{healthy}, report.Expired)
	assert.Empty(t, report.Failures)

	// With nothing else due, the failed owner is retried.
	report, err = svc.SweepExpiredTrials(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken, report.Failures[0].OwnerID)
}

func TestSweepExpiredTrials_BatchLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, seats.WithTrialSweepBatch(2))
	ended := f.clock.Now().Add(-time.Minute)
	for range 3 {
		_, err := f.svc.ApplyPlanChange(f.ctx, seats.PlanChangeCommand{OwnerID: uuid.New(), PlanID: "duo", TrialEndsAt: &ended})
		require.NoError(t, err)
	}

	report, err := f.svc.SweepExpiredTrials(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)

	report, err = f.svc.SweepExpiredTrials(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
}

func TestSweeper_RunOnce(t *testing.T) {
	t.Parallel()

	t.Run("skips when the lease is held elsewhere", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		owner := f.owner("owner", "quad")
		inv := f.invite(owner, "guest@example.com")

		held := seats.LeaseFunc(func(context.Context) (func(context.Context), bool, error) {
			return nil, false, nil
		})
		sw := seats.NewSweeper(f.svc, time.Minute,
			seats.WithSweepLease(held),
			seats.WithSweepClock(func() time.Time { return inv.ExpiresAt }),
		)
		assert.False(t, sw.RunOnce(f.ctx))

		stored, err := f.store.GetInvite(f.ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, seats.InvitePending, stored.Status)
	})

	t.Run("lease errors skip the run", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		failing := seats.LeaseFunc(func(context.Context) (func(context.Context), bool, error) {
			return nil, false, errors.New("redis down")
		})
		sw := seats.NewSweeper(f.svc, time.Minute, seats.WithSweepLease(failing))
		assert.False(t, sw.RunOnce(f.ctx))
	})

	t.Run("sweeps and releases the lease", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		owner := f.owner("owner", "quad")
		inv := f.invite(owner, "guest@example.com")

		var released atomic.Bool
		lease := seats.LeaseFunc(func(context.Context) (func(context.Context), bool, error) {
			return func(context.Context) { released.Store(true) }, true, nil
		})
		sw := seats.NewSweeper(f.svc, time.Minute,
			seats.WithSweepLease(lease),
			seats.WithSweepClock(func() time.Time { return inv.ExpiresAt }),
		)
		assert.True(t, sw.RunOnce(f.ctx))
		assert.True(t, released.Load())

		stored, err := f.store.GetInvite(f.ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, seats.InviteExpired, stored.Status)
	})
}

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var runs atomic.Int32
	lease := seats.LeaseFunc(func(context.Context) (func(context.Context), bool, error) {
		runs.Add(1)
		return func(context.Context) {}, true, nil
	})
	sw := seats.NewSweeper(f.svc, 10*time.Millisecond, seats.WithSweepLease(lease))

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	assert.Panics(t, func() { seats.NewSweeper(f.svc, 0) })
}
