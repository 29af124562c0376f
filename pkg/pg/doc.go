// Package pg bootstraps PostgreSQL access on top of jackc/pgx/v5: a retrying
// pool constructor, goose migrations (from disk or an embedded fs.FS), a
// transaction helper and SQLSTATE-based error classification.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.MigrateFS(ctx, pool, cfg, migrations.FS, log); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Helpers such as [IsDuplicateKeyError] and [IsLockError] unwrap
// *pgconn.PgError values. Lock failures (deadlocks, lock timeouts and
// serialization failures) are transient: the transaction was rolled back and
// the caller may retry it.
package pg
