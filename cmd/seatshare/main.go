// Command seatshare runs the seat allocation engine as an HTTP service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/seatshare/pkg/config"
	"github.com/dmitrymomot/seatshare/pkg/email"
	"github.com/dmitrymomot/seatshare/pkg/httpserver"
	"github.com/dmitrymomot/seatshare/pkg/jwt"
	"github.com/dmitrymomot/seatshare/pkg/logger"
	"github.com/dmitrymomot/seatshare/pkg/pg"
	"github.com/dmitrymomot/seatshare/pkg/plans"
	"github.com/dmitrymomot/seatshare/pkg/redis"
	"github.com/dmitrymomot/seatshare/pkg/seats"
	"github.com/dmitrymomot/seatshare/pkg/seats/mailnotify"
	"github.com/dmitrymomot/seatshare/pkg/seats/pgstore"
	"github.com/dmitrymomot/seatshare/pkg/seats/seathttp"
)

const sweepLeaseKey = "seatshare:sweeper"

type appConfig struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	PlansFile       string        `env:"PLANS_FILE"`
	InviteTTL       time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	LockTimeout     time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`
	TrialSweepBatch int           `env:"TRIAL_SWEEP_BATCH" envDefault:"500"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"` // zero disables the in-process sweeper
	ServiceKey      string        `env:"SERVICE_KEY"`
	AccountHeader   string        `env:"ACCOUNT_HEADER" envDefault:"X-Account-ID"`
	TokenSecret     string        `env:"TOKEN_SECRET"` // when set, callers authenticate with bearer tokens
	TokenAudience   string        `env:"TOKEN_AUDIENCE"`
	HealthTimeout   time.Duration `env:"HEALTHCHECK_TIMEOUT" envDefault:"3s"`
}

func main() {
	cfg := config.MustLoad[appConfig](config.WithPrefix("SEATS_"))

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "seatshare"),
		logger.WithContextExtractors(seathttp.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("seatshare stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pgCfg := config.MustLoad[pg.Config]()
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.PlansFile)
	if err != nil {
		return err
	}

	sender, err := email.New(config.MustLoad[email.Config]())
	if err != nil {
		return err
	}
	notifier := mailnotify.New(sender, config.MustLoad[mailnotify.Config](), mailnotify.WithLogger(log))

	svc, err := seats.NewService(pgstore.New(pool), catalog,
		seats.WithLogger(log),
		seats.WithNotifier(notifier),
		seats.WithInviteTTL(cfg.InviteTTL),
		seats.WithLockTimeout(cfg.LockTimeout),
		seats.WithTrialSweepBatch(cfg.TrialSweepBatch),
	)
	if err != nil {
		return err
	}

	identity, err := identityResolver(cfg)
	if err != nil {
		return err
	}
	api := seathttp.New(svc, identity, seathttp.WithLogger(log), seathttp.WithServiceKey(cfg.ServiceKey))

	checks := []func(context.Context) error{pg.Healthcheck(pool)}
	serverOpts := []httpserver.Option{httpserver.WithLogger(log)}

	if cfg.SweepInterval > 0 {
		client, err := redis.Connect(ctx, config.MustLoad[redis.Config]())
		if err != nil {
			return err
		}
		defer client.Close()
		checks = append(checks, redis.Healthcheck(client))

		sweeper := seats.NewSweeper(svc, cfg.SweepInterval,
			seats.WithSweepLogger(log),
			seats.WithSweepLease(sweepLease(client, cfg.SweepInterval, log)),
		)
		serverOpts = append(serverOpts, httpserver.WithWorker("sweeper", sweeper.Run))
	}

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(log, 0))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, cfg.HealthTimeout, checks...))
	r.Mount("/", api.Handle())

	return httpserver.NewFromConfig(config.MustLoad[httpserver.Config](), serverOpts...).Run(ctx, r)
}

func loadCatalog(path string) (*plans.Catalog, error) {
	if path == "" {
		return plans.Default(), nil
	}
	return plans.LoadFile(path)
}

func identityResolver(cfg appConfig) (seathttp.IdentityResolver, error) {
	if cfg.TokenSecret == "" {
		return seathttp.HeaderIdentity(cfg.AccountHeader), nil
	}
	var opts []jwt.Option
	if cfg.TokenAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.TokenAudience))
	}
	tokens, err := jwt.New([]byte(cfg.TokenSecret), opts...)
	if err != nil {
		return nil, err
	}
	return seathttp.TokenIdentity(tokens), nil
}

// sweepLease lets one instance sweep per interval. The lease outlives a
// normal run and expires on its own if the holder dies.
func sweepLease(client goredis.UniversalClient, ttl time.Duration, log *slog.Logger) seats.LeaseFunc {
	return func(ctx context.Context) (func(context.Context), bool, error) {
		lease, err := redis.AcquireLease(ctx, client, sweepLeaseKey, ttl)
		if errors.Is(err, redis.ErrLeaseHeld) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return func(ctx context.Context) {
			if err := lease.Release(ctx); err != nil {
				log.WarnContext(ctx, "sweep lease release failed", logger.Error(err))
			}
		}, true, nil
	}
}
