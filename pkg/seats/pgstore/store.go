// Package pgstore implements seats.Store on PostgreSQL with pgx.
//
// Family-scoped writes are serialized with SELECT ... FOR UPDATE on the family
// row; members and invites are removed with their family by ON DELETE CASCADE
// foreign keys. Lock timeouts, deadlocks and serialization failures are
// reported wrapped in seats.ErrTransient.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/seatshare/pkg/pg"
	"github.com/dmitrymomot/seatshare/pkg/seats"
)

// Store implements seats.Store.
type Store struct {
	queries
	pool *pgxpool.Pool
}

var _ seats.Store = (*Store)(nil)

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pgstore: nil pool")
	}
	return &Store{queries: queries{db: pool}, pool: pool}
}

// InTx implements seats.Store. Transactions run at READ COMMITTED; the row
// locks taken through Tx provide the ordering.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx seats.Tx) error) error {
	err := pg.InTx(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ptx pgx.Tx) error {
		return fn(ctx, &tx{queries: queries{db: ptx}})
	})
	if err != nil && pg.IsLockError(err) {
		return errors.Join(seats.ErrTransient, err)
	}
	return err
}

// ReadTx implements seats.Store with a read-only REPEATABLE READ
// transaction: every query in fn sees the same snapshot and no row is locked.
func (s *Store) ReadTx(ctx context.Context, fn func(ctx context.Context, q seats.Queries) error) error {
	return pg.InTx(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(ptx pgx.Tx) error {
		return fn(ctx, queries{db: ptx})
	})
}

// ExpirePendingInvites implements seats.Store.
func (s *Store) ExpirePendingInvites(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE family_invites SET status = 'expired'
		WHERE status = 'pending' AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListExpiredTrialOwners implements seats.Store.
func (s *Store) ListExpiredTrialOwners(ctx context.Context, now time.Time, limit int, skip []uuid.UUID) ([]uuid.UUID, error) {
	keys := make([]string, 0, len(skip))
	for _, id := range skip {
		keys = append(keys, id.String())
	}
	rows, err := s.pool.Query(ctx, `SELECT id FROM accounts
		WHERE plan_id IS NOT NULL AND trial_ends_at IS NOT NULL AND trial_ends_at <= $1
			AND id <> ALL($3::uuid[])
		ORDER BY trial_ends_at, id
		LIMIT $2`, now, limit, keys)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

type tx struct {
	queries
}

func (t *tx) SetLockTimeout(ctx context.Context, d time.Duration) error {
	_, err := t.db.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, fmt.Sprintf("%dms", d.Milliseconds()))
	return err
}

func (t *tx) LockAccount(ctx context.Context, id uuid.UUID) (seats.Account, error) {
	return one(t.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id), scanAccount, seats.ErrAccountNotFound)
}

func (t *tx) LockFamily(ctx context.Context, id uuid.UUID) (seats.Family, error) {
	return one(t.db.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM families WHERE id = $1 FOR UPDATE`, id), scanFamily, seats.ErrFamilyNotFound)
}

func (t *tx) LockFamilyByOwner(ctx context.Context, ownerID uuid.UUID) (seats.Family, error) {
	return one(t.db.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM families WHERE owner_id = $1 FOR UPDATE`, ownerID), scanFamily, seats.ErrFamilyNotFound)
}

func (t *tx) UpsertAccount(ctx context.Context, a seats.Account) error {
	_, err := t.db.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, email = EXCLUDED.email`,
		a.ID, a.DisplayName, a.Email, a.PlanID, a.TrialEndsAt, a.CreatedAt)
	return err
}

func (t *tx) UpdateAccountPlan(ctx context.Context, id uuid.UUID, planID *string, trialEndsAt *time.Time) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE accounts SET plan_id = $2, trial_ends_at = $3 WHERE id = $1`, id, planID, trialEndsAt)
	return notFoundIfNone(tag, err, seats.ErrAccountNotFound)
}

func (t *tx) CreateFamily(ctx context.Context, f seats.Family) error {
	_, err := t.db.Exec(ctx, `INSERT INTO families (`+familyColumns+`) VALUES ($1, $2, $3, $4)`,
		f.ID, f.OwnerID, f.MaxSeats, f.CreatedAt)
	return err
}

func (t *tx) UpdateFamilySeats(ctx context.Context, id uuid.UUID, maxSeats int) error {
	tag, err := t.db.Exec(ctx, `UPDATE families SET max_seats = $2 WHERE id = $1`, id, maxSeats)
	return notFoundIfNone(tag, err, seats.ErrFamilyNotFound)
}

func (t *tx) DeleteFamily(ctx context.Context, id uuid.UUID) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM families WHERE id = $1`, id)
	return notFoundIfNone(tag, err, seats.ErrFamilyNotFound)
}

func (t *tx) InsertMember(ctx context.Context, m seats.Member) error {
	_, err := t.db.Exec(ctx, `INSERT INTO family_members (`+memberColumns+`) VALUES ($1, $2, $3, $4)`,
		m.ID, m.FamilyID, m.AccountID, m.JoinedAt)
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(seats.ErrAlreadyMember, err)
	}
	return err
}

func (t *tx) DeleteMember(ctx context.Context, id uuid.UUID) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM family_members WHERE id = $1`, id)
	return notFoundIfNone(tag, err, seats.ErrMemberNotFound)
}

func (t *tx) InsertInvite(ctx context.Context, inv seats.Invite) error {
	_, err := t.db.Exec(ctx, `INSERT INTO family_invites (`+inviteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.FamilyID, inv.Token, inv.Email, string(inv.Status),
		inv.ExpiresAt, inv.UsedBy, inv.UsedAt, inv.CreatedAt)
	return err
}

func (t *tx) UpdateInviteStatus(ctx context.Context, id uuid.UUID, from, to seats.InviteStatus, usedBy *uuid.UUID, usedAt *time.Time) (bool, error) {
	tag, err := t.db.Exec(ctx, `UPDATE family_invites SET status = $3, used_by = $4, used_at = $5
		WHERE id = $1 AND status = $2`, id, string(from), string(to), usedBy, usedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
