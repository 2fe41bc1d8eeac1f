package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/migrations"
)

var migrationsFS fs.FS = migrations.FS

// RunMigrations applies every pending migration in file name order and
// returns the versions it applied.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	pending, err := PendingMigrations(ctx, pool)
	if err != nil {
		return nil, err
	}

	for _, version := range pending {
		log.Info().Str("migration", version).Msg("Applying migration")
		if err := applyMigration(ctx, pool, version); err != nil {
			return nil, fmt.Errorf("failed to apply migration %s: %w", version, err)
		}
	}

	log.Info().Int("applied", len(pending)).Msg("Document schema is up to date")
	return pending, nil
}

// PendingMigrations lists embedded migrations not yet recorded in schema_migrations.
func PendingMigrations(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	all, err := migrationFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}

	rows, err := pool.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []string
	for _, version := range all {
		if !applied[version] {
			pending = append(pending, version)
		}
	}
	return pending, nil
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, version string) error {
	content, err := fs.ReadFile(migrationsFS, version)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	// Simple protocol so a file may hold several statements.
	if _, err := conn.Conn().PgConn().Exec(ctx, string(content)).ReadAll(); err != nil {
		return err
	}

	_, err = conn.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
	return err
}
