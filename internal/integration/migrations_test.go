package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/db"
)

func TestIntegration_MigrationsCreateDocumentSchema(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()

	var tables int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN ('documents', 'schema_migrations')
	`).Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 2, tables)

	var indexes int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = 'documents' AND indexname IN ('idx_documents_collection_name', 'idx_documents_group_user')
	`).Scan(&indexes)
	require.NoError(t, err)
	require.Equal(t, 2, indexes)
}

func TestIntegration_MigrationsAreIdempotent(t *testing.T) {
	pool := newTestDB(t)
	ctx := context.Background()

	applied, err := db.RunMigrations(ctx, pool)
	require.NoError(t, err)
	require.Empty(t, applied)

	pending, err := db.PendingMigrations(ctx, pool)
	require.NoError(t, err)
	require.Empty(t, pending)
}
