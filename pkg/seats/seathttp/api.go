// Package seathttp exposes the seat allocation engine over HTTP.
//
// Account routes act on behalf of the caller resolved by an IdentityResolver.
// Internal routes take plan events and sweep triggers from trusted services
// and require the shared service key.
package seathttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/binder"
	"github.com/dmitrymomot/seatshare/handler"
	"github.com/dmitrymomot/seatshare/pkg/logger"
	"github.com/dmitrymomot/seatshare/pkg/seats"
)

// API serves the engine's HTTP routes.
type API struct {
	svc        seats.Service
	identity   IdentityResolver
	serviceKey string
	log        *slog.Logger
	now        func() time.Time
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithServiceKey enables the internal routes, guarded by key.
func WithServiceKey(key string) Option {
	return func(a *API) { a.serviceKey = key }
}

// WithClock sets the time passed to sweeps and trial expiry.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an API. It panics when svc or identity is nil.
func New(svc seats.Service, identity IdentityResolver, opts ...Option) *API {
	if svc == nil || identity == nil {
		panic("seathttp: service and identity resolver are required")
	}
	a := &API{
		svc:      svc,
		identity: identity,
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle returns the router. Internal routes are mounted only when a service key is set.
func (a *API) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	path := binder.Path(chi.URLParam)
	body := binder.BindJSON()

	r.Group(func(r chi.Router) {
		r.Use(authenticate(a.identity, a.log))

		r.Post("/invites", handler.Wrap(a.createInvite, handler.WithBinders[createInviteRequest](body)))
		r.Delete("/invites/{token}", handler.Wrap(a.revokeInvite, handler.WithBinders[tokenRequest](path)))
		r.Post("/invites/{token}/accept", handler.Wrap(a.acceptInvite, handler.WithBinders[tokenRequest](path)))

		r.Get("/family", handler.Wrap[struct{}](a.familyView))
		r.Delete("/family/members/{member_id}", handler.Wrap(a.removeMember, handler.WithBinders[removeMemberRequest](path)))
		r.Post("/family/leave", handler.Wrap[struct{}](a.leaveFamily))
	})

	if a.serviceKey != "" {
		r.Route("/internal", func(r chi.Router) {
			r.Use(requireServiceKey(a.serviceKey))

			r.Post("/accounts", handler.Wrap(a.registerAccount, handler.WithBinders[seats.RegisterAccountCommand](body)))
			r.Post("/plan-changes", handler.Wrap(a.applyPlanChange, handler.WithBinders[seats.PlanChangeCommand](body)))
			r.Post("/plans/{owner_id}/cancel", handler.Wrap(a.cancelPlan, handler.WithBinders[ownerRequest](path)))
			r.Post("/trials/{owner_id}/expire", handler.Wrap(a.expireTrial, handler.WithBinders[ownerRequest](path)))
			r.Post("/sweeps/invites", handler.Wrap[struct{}](a.sweepInvites))
			r.Post("/sweeps/trials", handler.Wrap[struct{}](a.sweepTrials))
		})
	}

	return r
}

type createInviteRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `path:"token"`
}

type removeMemberRequest struct {
	MemberID uuid.UUID `path:"member_id"`
}

type ownerRequest struct {
	OwnerID uuid.UUID `path:"owner_id"`
}

type sweepInvitesResponse struct {
	Expired int64 `json:"expired"`
}

func caller(ctx context.Context) uuid.UUID {
	id, _ := AccountFromContext(ctx)
	return id
}

func (a *API) createInvite(ctx context.Context, req createInviteRequest) handler.Response {
	inv, err := a.svc.CreateInvite(ctx, seats.CreateInviteCommand{OwnerID: caller(ctx), Email: req.Email})
	if err != nil {
		return a.fail(ctx, "create_invite", err)
	}
	return handler.JSON(inv, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) revokeInvite(ctx context.Context, req tokenRequest) handler.Response {
	if err := a.svc.RevokeInvite(ctx, seats.RevokeInviteCommand{OwnerID: caller(ctx), Token: req.Token}); err != nil {
		return a.fail(ctx, "revoke_invite", err)
	}
	return handler.Empty()
}

func (a *API) acceptInvite(ctx context.Context, req tokenRequest) handler.Response {
	if err := a.svc.AcceptInvite(ctx, seats.AcceptInviteCommand{AccountID: caller(ctx), Token: req.Token}); err != nil {
		return a.fail(ctx, "accept_invite", err)
	}
	return handler.Empty()
}

func (a *API) familyView(ctx context.Context, _ struct{}) handler.Response {
	view, err := a.svc.GetFamilyView(ctx, caller(ctx))
	if err != nil {
		return a.fail(ctx, "family_view", err)
	}
	return handler.JSON(view)
}

func (a *API) removeMember(ctx context.Context, req removeMemberRequest) handler.Response {
	if err := a.svc.RemoveMember(ctx, seats.RemoveMemberCommand{OwnerID: caller(ctx), MemberID: req.MemberID}); err != nil {
		return a.fail(ctx, "remove_member", err)
	}
	return handler.Empty()
}

func (a *API) leaveFamily(ctx context.Context, _ struct{}) handler.Response {
	if err := a.svc.LeaveFamily(ctx, seats.LeaveFamilyCommand{AccountID: caller(ctx)}); err != nil {
		return a.fail(ctx, "leave_family", err)
	}
	return handler.Empty()
}

func (a *API) registerAccount(ctx context.Context, req seats.RegisterAccountCommand) handler.Response {
	if err := a.svc.RegisterAccount(ctx, req); err != nil {
		return a.fail(ctx, "register_account", err)
	}
	return handler.Empty()
}

func (a *API) applyPlanChange(ctx context.Context, req seats.PlanChangeCommand) handler.Response {
	res, err := a.svc.ApplyPlanChange(ctx, req)
	if err != nil {
		return a.fail(ctx, "plan_change", err)
	}
	return handler.JSON(res)
}

func (a *API) cancelPlan(ctx context.Context, req ownerRequest) handler.Response {
	res, err := a.svc.CancelPlan(ctx, req.OwnerID)
	if err != nil {
		return a.fail(ctx, "cancel_plan", err)
	}
	return handler.JSON(res)
}

func (a *API) expireTrial(ctx context.Context, req ownerRequest) handler.Response {
	res, err := a.svc.ExpireTrial(ctx, req.OwnerID, a.now())
	if err != nil {
		return a.fail(ctx, "expire_trial", err)
	}
	return handler.JSON(res)
}

func (a *API) sweepInvites(ctx context.Context, _ struct{}) handler.Response {
	n, err := a.svc.SweepExpiredInvites(ctx, a.now())
	if err != nil {
		return a.fail(ctx, "sweep_invites", err)
	}
	return handler.JSON(sweepInvitesResponse{Expired: n})
}

func (a *API) sweepTrials(ctx context.Context, _ struct{}) handler.Response {
	report, err := a.svc.SweepExpiredTrials(ctx, a.now())
	if err != nil {
		return a.fail(ctx, "sweep_trials", err)
	}
	return handler.JSON(report)
}
