// Package testutil holds helpers for repository integration tests. They skip
// when TEST_DATABASE_URL is not set.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/Domenick1991/tripplanner/internal/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var migrateOnce sync.Once

// NewTx opens a pool on TEST_DATABASE_URL, applies the migrations once per
// test binary and returns a transaction that is rolled back on cleanup.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()

	var migrateErr error
	migrateOnce.Do(func() {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			migrateErr = err
			return
		}
		defer db.Close()
		migrateErr = migrations.Up(ctx, db)
	})
	if migrateErr != nil {
		t.Fatalf("testutil.NewTx: migrate: %v", migrateErr)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("testutil.NewTx: open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}
