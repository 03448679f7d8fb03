// Package dbpool provides a bounded pool of reusable database connections.
//
// Callers borrow a connection through With, which guarantees the connection
// is either returned to the pool or closed once the callback returns:
//
//	err := p.With(ctx, func(ctx context.Context, conn *pgx.Conn) error {
//	    return conn.Ping(ctx)
//	})
//
// A connection is closed instead of reused when the callback fails (returns
// an error or panics), when it has reached the pool TTL, or when it reports
// itself closed. Idle connections are reused most-recently-released first.
//
// At most Config.MaxSize connections are open at any instant. When all of
// them are borrowed, With blocks until one is returned or disposed, or until
// ctx ends. Config.AcquireTimeout optionally bounds that wait.
//
// Pool events (create, return, close) are logged through a logrus.FieldLogger
// supplied with WithLogger. Stats returns a snapshot suitable for the
// Prometheus collector in this package.
package dbpool
