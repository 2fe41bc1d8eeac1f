package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

const idField = "id"

// Encode serializes v to a JSON object and strips its id field.
// Times are written in RFC 3339 form by encoding/json.
func Encode(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document must encode to a JSON object: %w", err)
	}
	delete(fields, idField)

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, nil
}

// Decode injects the document key as the id field and unmarshals into v.
func Decode(doc Document, v any) error {
	fields := map[string]json.RawMessage{}
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &fields); err != nil {
			return fmt.Errorf("failed to decode document %s/%s: %w", doc.Path, doc.ID, err)
		}
	}

	id, err := json.Marshal(doc.ID)
	if err != nil {
		return err
	}
	fields[idField] = id

	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", doc.Path, doc.ID, err)
	}
	return nil
}

// DecodeAll decodes every document, dropping those that fail to decode.
func DecodeAll[T any](docs []Document) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			log.Debug().Err(err).Str("path", doc.Path).Str("id", doc.ID).Msg("Skipping undecodable document")
			continue
		}
		out = append(out, v)
	}
	return out
}

// FetchAllAs fetches a collection and decodes it into T.
// Records that fail to decode are dropped silently.
func FetchAllAs[T any](ctx context.Context, s Store, path string) ([]T, error) {
	docs, err := s.FetchAll(ctx, path)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](docs), nil
}

// FetchOneAs fetches and decodes a single document. It returns nil when absent.
func FetchOneAs[T any](ctx context.Context, s Store, path, id string) (*T, error) {
	doc, found, err := s.FetchOne(ctx, path, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var v T
	if err := Decode(doc, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetAs encodes v and writes it under path/id.
func SetAs(ctx context.Context, s Store, path, id string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, path, id, data)
}
