package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dbpool/internal/dbpool"
)

var _ dbpool.Conn = (*pgx.Conn)(nil)

// NewOpener returns an Opener dialing the server described by dsn. The DSN
// is parsed once, so a malformed one fails here rather than on first use.
func NewOpener(dsn string) (dbpool.Opener[*pgx.Conn], error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	return func(ctx context.Context) (*pgx.Conn, error) {
		return pgx.ConnectConfig(ctx, cfg.Copy())
	}, nil
}
