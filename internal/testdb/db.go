// Package testdb provides helpers for integration tests that run against a
// real Postgres instance. Tests that use it skip themselves unless
// DATABASE_URL is set, so the ordinary unit-test run needs no database.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley-api/internal/platform/postgres"
)

// connectTimeout bounds the initial ping so a missing database fails fast.
const connectTimeout = 5 * time.Second

// URL returns the test database URL from the environment, or "" when
// integration tests should be skipped.
func URL() string {
	return os.Getenv("DATABASE_URL")
}

// RequireDatabase skips the test unless a test database is configured.
func RequireDatabase(t *testing.T) {
	t.Helper()
	if URL() == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
}

// Open connects to the test database, migrates the schema to the latest
// version, and registers cleanup that closes the connection. Each test gets
// tables emptied via Reset rather than a fresh schema.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	RequireDatabase(t)

	db, err := sql.Open("pgx", URL())
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "failed to ping test database")

	goose.SetBaseFS(postgres.MigrationsFS)
	require.NoError(t, goose.SetDialect("postgres"), "failed to set goose dialect")
	require.NoError(t, goose.Up(db, postgres.MigrationsDir), "failed to migrate test database")

	Reset(t, db)
	return db
}

// Reset empties all data tables while keeping the schema and the seeded
// dimension catalog intact. Scores cascade from users.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()

	// partner_id self-references rows in the same table, so clear the
	// pairing links before deleting.
	_, err := db.Exec(`UPDATE users SET partner_id = NULL`)
	require.NoError(t, err, "failed to clear pairings")

	_, err = db.Exec(`DELETE FROM users`)
	require.NoError(t, err, "failed to reset users table")
}
