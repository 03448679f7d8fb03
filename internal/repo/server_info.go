package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Borrower hands out a pooled connection for the duration of fn.
// *dbpool.Pool[*pgx.Conn] implements it.
type Borrower interface {
	With(ctx context.Context, fn func(ctx context.Context, conn *pgx.Conn) error) error
}

type ServerInfo struct {
	Now      time.Time
	Version  string
	Database string
	User     string
	PID      uint32
}

func GetServerInfo(ctx context.Context, db Borrower) (*ServerInfo, error) {
	const q = `
SELECT now(), version(), current_database(), current_user
`
	var si ServerInfo
	err := db.With(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		si.PID = conn.PgConn().PID()
		return conn.QueryRow(ctx, q).Scan(&si.Now, &si.Version, &si.Database, &si.User)
	})
	if err != nil {
		return nil, err
	}
	return &si, nil
}

func Ping(ctx context.Context, db Borrower) error {
	return db.With(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		return conn.Ping(ctx)
	})
}
