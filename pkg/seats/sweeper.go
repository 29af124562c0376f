package seats

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

// SweepExpiredInvites marks all pending invites past their deadline as
// expired. Running it again with the same now changes nothing.
func (s *service) SweepExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.ExpirePendingInvites(ctx, now.UTC())
	if err != nil {
		return 0, s.fail(ctx, "sweep_expired_invites", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expired pending invites", logger.Count(n))
	}
	return n, nil
}

// SweepExpiredTrials runs the cancellation cascade for every owner whose
// trial ended at or before now, one transaction per owner. A failing owner is
// logged and reported but does not stop the sweep.
//
// Owners that failed in the previous run go to the back of the batch and are
// retried only when it has room left, so they cannot starve the rest.
func (s *service) SweepExpiredTrials(ctx context.Context, now time.Time) (TrialSweepReport, error) {
	now = now.UTC()
	report := TrialSweepReport{Expired: []uuid.UUID{}}

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	retry := s.failedTrials
	owners, err := s.store.ListExpiredTrialOwners(ctx, now, s.trialBatch, retry)
	if err != nil {
		return report, s.fail(ctx, "sweep_expired_trials", err)
	}
	if room := s.trialBatch - len(owners); room > 0 {
		owners = append(owners, retry[:min(room, len(retry))]...)
	}
	defer func() {
		// Retries that did not get their turn keep their place at the back.
		var next []uuid.UUID
		for _, id := range retry {
			if !slices.Contains(owners[:report.Processed], id) {
				next = append(next, id)
			}
		}
		for _, f := range report.Failures {
			next = append(next, f.OwnerID)
		}
		s.failedTrials = next
	}()

	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		result, err := s.ExpireTrial(ctx, ownerID, now)
		if err != nil {
			kind := KindOf(err)
			s.log.ErrorContext(ctx, "trial expiry failed",
				logger.AccountID(ownerID), logger.Kind(string(kind)), logger.Error(err))
			report.Failures = append(report.Failures, TrialFailure{OwnerID: ownerID, Kind: kind, Error: err.Error()})
			continue
		}
		if result.Change == PlanTrialExpired {
			report.Expired = append(report.Expired, ownerID)
		}
	}

	if report.Processed > 0 {
		s.log.InfoContext(ctx, "expired trials swept",
			slog.Int("processed", report.Processed),
			slog.Int("expired", len(report.Expired)),
			slog.Int("failed", len(report.Failures)),
		)
	}
	return report, nil
}

// Lease grants exclusive permission to run a sweep. ok is false when another
// instance holds it.
type Lease interface {
	Acquire(ctx context.Context) (release func(context.Context), ok bool, err error)
}

// LeaseFunc adapts a function to the Lease interface.
type LeaseFunc func(ctx context.Context) (func(context.Context), bool, error)

func (f LeaseFunc) Acquire(ctx context.Context) (func(context.Context), bool, error) {
	return f(ctx)
}

// Sweeper runs both sweeps periodically.
type Sweeper struct {
	svc      Service
	interval time.Duration
	lease    Lease
	now      func() time.Time
	log      *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLease makes each run conditional on holding the lease.
func WithSweepLease(l Lease) SweeperOption {
	return func(sw *Sweeper) { sw.lease = l }
}

// WithSweepLogger sets the sweeper logger.
func WithSweepLogger(log *slog.Logger) SweeperOption {
	return func(sw *Sweeper) {
		if log != nil {
			sw.log = log
		}
	}
}

// WithSweepClock replaces time.Now.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(sw *Sweeper) {
		if now != nil {
			sw.now = now
		}
	}
}

// NewSweeper returns a Sweeper running every interval.
func NewSweeper(svc Service, interval time.Duration, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		panic("seats: sweep interval must be > 0")
	}
	sw := &Sweeper{svc: svc, interval: interval, now: time.Now, log: logger.Discard()}
	for _, opt := range opts {
		opt(sw)
	}
	sw.log = sw.log.With(logger.Component("sweeper"))
	return sw
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		sw.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep of invites and trials. It reports whether the
// sweep ran, which is false when another instance holds the lease.
func (sw *Sweeper) RunOnce(ctx context.Context) bool {
	if sw.lease != nil {
		release, ok, err := sw.lease.Acquire(ctx)
		if err != nil {
			sw.log.WarnContext(ctx, "sweep lease unavailable", logger.Error(err))
			return false
		}
		if !ok {
			sw.log.DebugContext(ctx, "sweep skipped, lease held elsewhere")
			return false
		}
		defer release(context.WithoutCancel(ctx))
	}

	start := time.Now()
	now := sw.now()
	if _, err := sw.svc.SweepExpiredInvites(ctx, now); err != nil {
		sw.log.ErrorContext(ctx, "invite sweep failed", logger.Error(err))
	}
	if _, err := sw.svc.SweepExpiredTrials(ctx, now); err != nil {
		sw.log.ErrorContext(ctx, "trial sweep failed", logger.Error(err))
	}
	sw.log.DebugContext(ctx, "sweep finished", logger.Duration(time.Since(start)))
	return true
}
