package db

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewPostgres opens a PostgreSQL connection pool for the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connection failed: %w", err)
	}

	// Volume is a few requests per shift; the pool is sized for the approver
	// UI polling rather than throughput.
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return conn, nil
}

// RunMigrations applies the SQL files from the migrations directory in name
// order, tracking applied files in schema_migrations.
func RunMigrations(ctx context.Context, conn *sqlx.DB, migrationsDir string) error {
	if err := initMigrationsTable(ctx, conn); err != nil {
		return fmt.Errorf("postgres: cannot initialize migrations table: %w", err)
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("postgres: cannot read migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		migrationName := entry.Name()

		alreadyApplied, err := isMigrationApplied(ctx, conn, migrationName)
		if err != nil {
			return fmt.Errorf("postgres: cannot check migration %s: %w", migrationName, err)
		}
		if alreadyApplied {
			continue
		}

		path := filepath.Join(migrationsDir, migrationName)
		if err := applyMigration(ctx, conn, path, migrationName); err != nil {
			return err
		}
	}

	return nil
}

func initMigrationsTable(ctx context.Context, conn *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := conn.ExecContext(ctx, query)
	return err
}

func isMigrationApplied(ctx context.Context, conn *sqlx.DB, migrationName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM schema_migrations WHERE name = $1`
	err := conn.GetContext(ctx, &count, query, migrationName)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyMigration(ctx context.Context, conn *sqlx.DB, path string, migrationName string) error {
	sqlBytes, err := fs.ReadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("postgres: cannot read migration %s: %w", path, err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: cannot begin transaction for migration %s: %w", migrationName, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("postgres: migration %s failed: %w", path, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, migrationName)
	if err != nil {
		return fmt.Errorf("postgres: cannot mark migration %s as applied: %w", migrationName, err)
	}

	return tx.Commit()
}
