package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

// Store keeps every document in a single jsonb table keyed by
// (collection_path, doc_id). See migrations/001_documents.sql.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewFromPool exposes a pgx pool through database/sql.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return New(stdlib.OpenDBFromPool(pool))
}

// Close releases the database/sql handle. The underlying pool stays open.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) IsCollectionEmpty(ctx context.Context, path string) (bool, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM documents WHERE collection_path = $1)`
	if err := s.db.QueryRowContext(ctx, query, path).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", path, err)
	}
	return !exists, nil
}

func (s *Store) FetchAll(ctx context.Context, path string) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	query := `
		SELECT collection_path, doc_id, data
		FROM documents
		WHERE collection_path = $1
		ORDER BY doc_id
	`
	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", path, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *Store) FetchOne(ctx context.Context, path, id string) (docstore.Document, bool, error) {
	if err := docstore.ValidateKey(path, id); err != nil {
		return docstore.Document{}, false, err
	}

	var data []byte
	query := `SELECT data FROM documents WHERE collection_path = $1 AND doc_id = $2`
	err := s.db.QueryRowContext(ctx, query, path, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, false, nil
		}
		return docstore.Document{}, false, fmt.Errorf("failed to fetch document %s/%s: %w", path, id, err)
	}

	return docstore.Document{Path: path, ID: id, Data: json.RawMessage(data)}, true, nil
}

func (s *Store) Set(ctx context.Context, path, id string, data json.RawMessage) error {
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection_path, doc_id, collection_name, data, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, NOW())
		ON CONFLICT (collection_path, doc_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query, path, id, docstore.CollectionName(path), string(data))
	if err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	query := `DELETE FROM documents WHERE collection_path = $1 AND doc_id = $2`
	if _, err := s.db.ExecContext(ctx, query, path, id); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) QueryGroup(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	query := `
		SELECT collection_path, doc_id, data
		FROM documents
		WHERE collection_name = $1 AND data->>$2 = $3
		ORDER BY collection_path, doc_id
	`
	rows, err := s.db.QueryContext(ctx, query, collection, field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]docstore.Document, error) {
	var docs []docstore.Document
	for rows.Next() {
		var doc docstore.Document
		var data []byte
		if err := rows.Scan(&doc.Path, &doc.ID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Data = json.RawMessage(data)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}
