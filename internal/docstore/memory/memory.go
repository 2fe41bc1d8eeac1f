package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/volunqueer/volunqueer/internal/docstore"
)

// Store is an in-process document store. It backs the mock data source and tests.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]json.RawMessage),
	}
}

func (s *Store) IsCollectionEmpty(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := docstore.ValidatePath(path); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[path]) == 0, nil
}

func (s *Store) FetchAll(ctx context.Context, path string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[path]
	docs := make([]docstore.Document, 0, len(coll))
	for id, data := range coll {
		docs = append(docs, docstore.Document{Path: path, ID: id, Data: clone(data)})
	}
	sortDocuments(docs)
	return docs, nil
}

func (s *Store) FetchOne(ctx context.Context, path, id string) (docstore.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, false, err
	}
	if err := docstore.ValidateKey(path, id); err != nil {
		return docstore.Document{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[path][id]
	if !ok {
		return docstore.Document{}, false, nil
	}
	return docstore.Document{Path: path, ID: id, Data: clone(data)}, true, nil
}

func (s *Store) Set(ctx context.Context, path, id string, data json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[path]
	if !ok {
		coll = make(map[string]json.RawMessage)
		s.collections[path] = coll
	}
	coll[id] = clone(data)
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.collections[path]; ok {
		delete(coll, id)
		if len(coll) == 0 {
			delete(s.collections, path)
		}
	}
	return nil
}

func (s *Store) QueryGroup(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []docstore.Document
	for path, coll := range s.collections {
		if docstore.CollectionName(path) != collection {
			continue
		}
		for id, data := range coll {
			if matchesField(data, field, value) {
				docs = append(docs, docstore.Document{Path: path, ID: id, Data: clone(data)})
			}
		}
	}
	sortDocuments(docs)
	return docs, nil
}

func matchesField(data json.RawMessage, field, value string) bool {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	v, ok := fields[field].(string)
	return ok && v == value
}

func sortDocuments(docs []docstore.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Path != docs[j].Path {
			return docs[i].Path < docs[j].Path
		}
		return docs[i].ID < docs[j].ID
	})
}

func clone(data json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}
