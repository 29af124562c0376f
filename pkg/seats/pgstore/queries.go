package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/seatshare/pkg/pg"
	"github.com/dmitrymomot/seatshare/pkg/seats"
)

// dbtx is satisfied by *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

const (
	accountColumns = `id, display_name, email, plan_id, trial_ends_at, created_at`
	familyColumns  = `id, owner_id, max_seats, created_at`
	memberColumns  = `id, family_id, account_id, joined_at`
	inviteColumns  = `id, family_id, token, email, status, expires_at, used_by, used_at, created_at`
)

func scanAccount(row pgx.Row) (seats.Account, error) {
	var a seats.Account
	err := row.Scan(&a.ID, &a.DisplayName, &a.Email, &a.PlanID, &a.TrialEndsAt, &a.CreatedAt)
	return a, err
}

func scanFamily(row pgx.Row) (seats.Family, error) {
	var f seats.Family
	err := row.Scan(&f.ID, &f.OwnerID, &f.MaxSeats, &f.CreatedAt)
	return f, err
}

func scanMember(row pgx.Row) (seats.Member, error) {
	var m seats.Member
	err := row.Scan(&m.ID, &m.FamilyID, &m.AccountID, &m.JoinedAt)
	return m, err
}

func scanInvite(row pgx.Row) (seats.Invite, error) {
	var (
		inv    seats.Invite
		status string
	)
	err := row.Scan(&inv.ID, &inv.FamilyID, &inv.Token, &inv.Email, &status,
		&inv.ExpiresAt, &inv.UsedBy, &inv.UsedAt, &inv.CreatedAt)
	inv.Status = seats.InviteStatus(status)
	return inv, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

// one scans a single row, mapping pgx.ErrNoRows to the notFound sentinel.
func one[T any](row pgx.Row, scan func(pgx.Row) (T, error), notFound error) (T, error) {
	v, err := scan(row)
	if pg.IsNotFoundError(err) {
		return v, notFound
	}
	return v, err
}

func (q queries) GetAccount(ctx context.Context, id uuid.UUID) (seats.Account, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id), scanAccount, seats.ErrAccountNotFound)
}

func (q queries) GetAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]seats.Account, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]seats.Account{}, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	rows, err := q.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1::uuid[])`, keys)
	if err != nil {
		return nil, err
	}
	list, err := collect(rows, scanAccount)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]seats.Account, len(list))
	for _, a := range list {
		out[a.ID] = a
	}
	return out, nil
}

func (q queries) GetFamily(ctx context.Context, id uuid.UUID) (seats.Family, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM families WHERE id = $1`, id), scanFamily, seats.ErrFamilyNotFound)
}

func (q queries) GetFamilyByOwner(ctx context.Context, ownerID uuid.UUID) (seats.Family, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM families WHERE owner_id = $1`, ownerID), scanFamily, seats.ErrFamilyNotFound)
}

func (q queries) GetMember(ctx context.Context, id uuid.UUID) (seats.Member, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM family_members WHERE id = $1`, id), scanMember, seats.ErrMemberNotFound)
}

func (q queries) GetMemberByAccount(ctx context.Context, accountID uuid.UUID) (seats.Member, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM family_members WHERE account_id = $1`, accountID), scanMember, seats.ErrMemberNotFound)
}

func (q queries) GetInvite(ctx context.Context, id uuid.UUID) (seats.Invite, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM family_invites WHERE id = $1`, id), scanInvite, seats.ErrInviteNotFound)
}

func (q queries) GetInviteByToken(ctx context.Context, token string) (seats.Invite, error) {
	return one(q.db.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM family_invites WHERE token = $1`, token), scanInvite, seats.ErrInviteNotFound)
}

func (q queries) ListMembers(ctx context.Context, familyID uuid.UUID) ([]seats.Member, error) {
	rows, err := q.db.Query(ctx, `SELECT `+memberColumns+` FROM family_members
		WHERE family_id = $1 ORDER BY joined_at, id`, familyID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMember)
}

func (q queries) ListPendingInvites(ctx context.Context, familyID uuid.UUID, now time.Time) ([]seats.Invite, error) {
	rows, err := q.db.Query(ctx, `SELECT `+inviteColumns+` FROM family_invites
		WHERE family_id = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY created_at, id`, familyID, now)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvite)
}

// notFoundIfNone reports sentinel when a write matched no row.
func notFoundIfNone(tag pgconn.CommandTag, err error, sentinel error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sentinel
	}
	return nil
}

var _ seats.Queries = queries{}
