package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store maps collection paths directly onto Cloud Firestore collections.
type Store struct {
	client *firestore.Client
}

// Connect creates a Firestore client for the project using application default credentials.
func Connect(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) IsCollectionEmpty(ctx context.Context, path string) (bool, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return false, err
	}

	iter := s.client.Collection(path).Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", path, err)
	}
	return false, nil
}

func (s *Store) FetchAll(ctx context.Context, path string) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	snaps, err := s.client.Collection(path).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", path, err)
	}
	return toDocuments(snaps)
}

func (s *Store) FetchOne(ctx context.Context, path, id string) (docstore.Document, bool, error) {
	if err := docstore.ValidateKey(path, id); err != nil {
		return docstore.Document{}, false, err
	}

	snap, err := s.client.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return docstore.Document{}, false, nil
		}
		return docstore.Document{}, false, fmt.Errorf("failed to fetch document %s/%s: %w", path, id, err)
	}

	doc, err := toDocument(snap)
	if err != nil {
		return docstore.Document{}, false, err
	}
	return doc, true, nil
}

func (s *Store) Set(ctx context.Context, path, id string, data json.RawMessage) error {
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to convert document %s/%s: %w", path, id, err)
	}

	if _, err := s.client.Collection(path).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	if _, err := s.client.Collection(path).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) QueryGroup(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	snaps, err := s.client.CollectionGroup(collection).Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	return toDocuments(snaps)
}

func toDocuments(snaps []*firestore.DocumentSnapshot) ([]docstore.Document, error) {
	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := toDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func toDocument(snap *firestore.DocumentSnapshot) (docstore.Document, error) {
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return docstore.Document{}, fmt.Errorf("failed to convert document %s: %w", snap.Ref.ID, err)
	}
	return docstore.Document{
		Path: relativePath(snap.Ref.Parent.Path),
		ID:   snap.Ref.ID,
		Data: data,
	}, nil
}

// relativePath strips the "projects/<p>/databases/<d>/documents/" prefix
// Firestore puts on fully qualified reference paths.
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i != -1 {
		return full[i+len(marker):]
	}
	return full
}
