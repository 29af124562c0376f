// Package redis wraps github.com/redis/go-redis/v9 with a retrying Connect,
// health checks and a small distributed Lease.
//
// A Lease gives one process exclusive ownership of a named job for a bounded
// time. It is used to keep periodic batch jobs from running on every replica
// at once:
//
//	lease, err := redis.AcquireLease(ctx, client, "seats:sweep", time.Minute)
//	if errors.Is(err, redis.ErrLeaseHeld) {
//	    return nil // another instance is sweeping
//	}
//	defer lease.Release(ctx)
//
// Leases are an efficiency measure, not a correctness mechanism: the guarded
// work must remain safe to run concurrently.
package redis
