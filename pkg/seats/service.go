package seats

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

// DefaultInviteTTL is how long an invite stays acceptable.
const DefaultInviteTTL = 7 * 24 * time.Hour

// Service is the seat allocation engine.
type Service interface {
	// Invites
	CreateInvite(ctx context.Context, cmd CreateInviteCommand) (InviteSummary, error)
	RevokeInvite(ctx context.Context, cmd RevokeInviteCommand) error
	AcceptInvite(ctx context.Context, cmd AcceptInviteCommand) error

	// Members
	RemoveMember(ctx context.Context, cmd RemoveMemberCommand) error
	LeaveFamily(ctx context.Context, cmd LeaveFamilyCommand) error
	GetFamilyView(ctx context.Context, accountID uuid.UUID) (FamilyView, error)

	// Identity records and plan events
	RegisterAccount(ctx context.Context, cmd RegisterAccountCommand) error
	ApplyPlanChange(ctx context.Context, cmd PlanChangeCommand) (CascadeResult, error)
	CancelPlan(ctx context.Context, ownerID uuid.UUID) (CascadeResult, error)
	ExpireTrial(ctx context.Context, ownerID uuid.UUID, now time.Time) (CascadeResult, error)

	// Sweeps
	SweepExpiredInvites(ctx context.Context, now time.Time) (int64, error)
	SweepExpiredTrials(ctx context.Context, now time.Time) (TrialSweepReport, error)
}

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNotifier sets where post-commit notifications go.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInviteTTL sets how long new invites stay acceptable.
func WithInviteTTL(ttl time.Duration) ServiceOption {
	return func(s *service) {
		if ttl > 0 {
			s.inviteTTL = ttl
		}
	}
}

// WithLockTimeout bounds the wait for the family lock during acceptance.
// Zero leaves the store default in place.
func WithLockTimeout(d time.Duration) ServiceOption {
	return func(s *service) {
		if d >= 0 {
			s.lockTimeout = d
		}
	}
}

// WithTokenGenerator replaces the cuid2 token generator.
func WithTokenGenerator(gen func() string) ServiceOption {
	return func(s *service) {
		if gen != nil {
			s.newToken = gen
		}
	}
}

// WithTrialSweepBatch limits how many expired trials one sweep processes.
func WithTrialSweepBatch(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.trialBatch = n
		}
	}
}

type service struct {
	store       Store
	catalog     PlanCatalog
	notifier    Notifier
	log         *slog.Logger
	now         func() time.Time
	newToken    func() string
	inviteTTL   time.Duration
	lockTimeout time.Duration
	trialBatch  int

	sweepMu      sync.Mutex
	failedTrials []uuid.UUID // owners that failed in the last trial sweep
}

// NewService creates the engine. Panics if store or catalog is nil.
func NewService(store Store, catalog PlanCatalog, opts ...ServiceOption) (Service, error) {
	if store == nil {
		panic("seats: Store is required")
	}
	if catalog == nil {
		panic("seats: PlanCatalog is required")
	}

	s := &service{
		store:       store,
		catalog:     catalog,
		notifier:    noopNotifier{},
		log:         logger.Discard(),
		now:         time.Now,
		inviteTTL:   DefaultInviteTTL,
		lockTimeout: 5 * time.Second,
		trialBatch:  500,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newToken == nil {
		gen, err := NewTokenGenerator()
		if err != nil {
			return nil, err
		}
		s.newToken = gen
	}
	s.log = s.log.With(logger.Component("seats"))

	return s, nil
}

func (s *service) clock() time.Time {
	return s.now().UTC()
}

// inTx runs fn in a store transaction and delivers the notifications it
// queued once the transaction has committed.
func (s *service) inTx(ctx context.Context, fn func(ctx context.Context, tx Tx, out *outbox) error) error {
	var out outbox
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		out = out[:0]
		return fn(ctx, tx, &out)
	})
	if err != nil {
		return err
	}

	for _, n := range out {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.WarnContext(ctx, "notification not delivered",
				logger.Event(string(n.Event)),
				logger.FamilyID(n.FamilyID.String()),
				logger.Error(err),
			)
		}
	}
	return nil
}

// fail logs unexpected errors with the kind they will be reported as.
func (s *service) fail(ctx context.Context, op string, err error, attrs ...slog.Attr) error {
	kind := KindOf(err)
	level := slog.LevelDebug
	switch kind {
	case KindConsistencyFault, KindInternal:
		level = slog.LevelError
	case KindTransient:
		level = slog.LevelWarn
	}
	attrs = append([]slog.Attr{slog.String("op", op), logger.Kind(string(kind)), logger.Error(err)}, attrs...)
	s.log.LogAttrs(ctx, level, "seat operation failed", attrs...)
	return err
}

// notFound maps store lookups that found nothing to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrFamilyNotFound) ||
		errors.Is(err, ErrMemberNotFound) || errors.Is(err, ErrInviteNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}

func (s *service) RegisterAccount(ctx context.Context, cmd RegisterAccountCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return s.inTx(ctx, func(ctx context.Context, tx Tx, _ *outbox) error {
		account, err := tx.LockAccount(ctx, cmd.AccountID)
		switch {
		case errors.Is(err, ErrAccountNotFound):
			account = Account{ID: cmd.AccountID, CreatedAt: s.clock()}
		case err != nil:
			return err
		}
		account.DisplayName = cmd.DisplayName
		if cmd.Email != "" {
			account.Email = normalizeEmail(cmd.Email)
		}
		return tx.UpsertAccount(ctx, account)
	})
}
