package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidPath is returned when a collection path or document id is malformed.
var ErrInvalidPath = errors.New("invalid document path")

// Document is a stored record addressed by its collection path and id.
// Data never contains the id; it is carried by the key only.
type Document struct {
	Path string
	ID   string
	Data json.RawMessage
}

// ParentID returns the id of the document that owns the collection this
// document lives in, or "" for top-level collections.
func (d Document) ParentID() string {
	return ParentID(d.Path)
}

// Store is the hierarchical document store contract shared by every backend.
type Store interface {
	// IsCollectionEmpty reports whether the collection at path holds no documents.
	IsCollectionEmpty(ctx context.Context, path string) (bool, error)

	// FetchAll returns every direct child document of the collection at path.
	FetchAll(ctx context.Context, path string) ([]Document, error)

	// FetchOne returns the document with the given id. found is false when it does not exist.
	FetchOne(ctx context.Context, path, id string) (doc Document, found bool, err error)

	// Set writes the document, replacing any existing payload.
	Set(ctx context.Context, path, id string, data json.RawMessage) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path, id string) error

	// QueryGroup returns documents from every collection named collection,
	// anywhere in the hierarchy, whose top-level field equals value.
	QueryGroup(ctx context.Context, collection, field, value string) ([]Document, error)
}

// ValidateKey checks that a collection path and document id can be addressed.
func ValidateKey(path, id string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if id == "" || strings.Contains(id, "/") {
		return ErrInvalidPath
	}
	return nil
}

// ValidatePath checks that path names a collection (an odd number of segments).
func ValidatePath(path string) error {
	segments := Segments(path)
	if len(segments) == 0 || len(segments)%2 == 0 {
		return ErrInvalidPath
	}
	for _, s := range segments {
		if s == "" {
			return ErrInvalidPath
		}
	}
	return nil
}
