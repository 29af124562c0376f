// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, lifecycle hooks, background workers and health-check handlers.
//
// Run blocks until its context is cancelled, an interrupt or TERM signal
// arrives, or Shutdown is called. Workers registered with WithWorker run for
// the lifetime of the server and are stopped and awaited before Run returns:
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithWorker("sweeper", sweeper.Run),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler serves liveness (no checks) and readiness (one or more
// checks) probes.
//
// Start and shutdown failures are wrapped with ErrStart and ErrShutdown.
package httpserver
