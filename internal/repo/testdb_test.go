package repo

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"dbpool/internal/dbpool"
	"dbpool/internal/postgres"
)

func testPool(t *testing.T) *dbpool.Pool[*pgx.Conn] {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("missing TEST_DB_DSN")
	}

	// safety: refuse running tests on dev DB
	if strings.Contains(dsn, "/dbpool?") {
		t.Fatalf("refusing to run tests on dev database DSN: %s", dsn)
	}

	open, err := postgres.NewOpener(dsn)
	if err != nil {
		t.Fatalf("postgres.NewOpener: %v", err)
	}

	logger, _ := logtest.NewNullLogger()
	pool, err := dbpool.New(open, dbpool.Config{MaxSize: 4, TTL: time.Minute}, dbpool.WithLogger(logger))
	if err != nil {
		t.Fatalf("dbpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Ping(ctx, pool); err != nil {
		t.Fatalf("db ping: %v", err)
	}

	return pool
}
