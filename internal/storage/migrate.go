package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Schema management for both stores. Postgres carries the relational
// schema (reports, watchlist, subscriptions) and is versioned with
// golang-migrate. ClickHouse holds a single append-only metrics table,
// so it gets an idempotent CREATE instead of a version history.

// usageMetricsDDL is the full ClickHouse schema. Metrics are never
// updated in place, so a MergeTree ordered by timestamp is enough.
const usageMetricsDDL = `
	CREATE TABLE IF NOT EXISTS usage_metrics (
		id String,
		metric_type LowCardinality(String),
		category LowCardinality(String),
		cost_cents Int64,
		revenue_cents Int64,
		metadata String,
		timestamp DateTime64(3, 'UTC')
	) ENGINE = MergeTree()
	ORDER BY (timestamp, metric_type)
`

func newMigrator(databaseURL, migrationsPath string) (*migrate.Migrate, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrations at %s: %w", migrationsPath, err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	_, _ = m.Close() // nolint:errcheck // cleanup in defer
}

// MigratePostgres applies all pending Postgres migrations.
func MigratePostgres(databaseURL, migrationsPath string) error {
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// RollbackPostgres reverts the most recent Postgres migration.
func RollbackPostgres(databaseURL, migrationsPath string) error {
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("revert migration: %w", err)
	}
	return nil
}

// PostgresVersion reports the current schema version. A fresh database
// with no applied migrations reports version 0.
func PostgresVersion(databaseURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m)

	version, dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// MigrateClickHouse creates the usage metrics table if it does not
// exist. Safe to run on every deploy.
func MigrateClickHouse(ctx context.Context, db *ClickHouseDB) error {
	if err := db.conn.Exec(ctx, usageMetricsDDL); err != nil {
		return fmt.Errorf("create usage_metrics table: %w", err)
	}
	return nil
}
