package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/volunqueer/volunqueer/internal/docstore"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const collectionName = "documents"

// record is the stored shape of one document. The JSON payload is kept
// verbatim in Data; scalar top-level fields are mirrored in Fields so
// collection group queries can filter on them.
type record struct {
	Key        string            `bson:"_id"`
	Path       string            `bson:"path"`
	Collection string            `bson:"collection"`
	DocID      string            `bson:"doc_id"`
	Data       string            `bson:"data"`
	Fields     map[string]string `bson:"fields"`
	UpdatedAt  time.Time         `bson:"updated_at"`
}

// Store persists documents in one MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect opens a client, verifies connectivity and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "path", Value: 1}, {Key: "doc_id", Value: 1}}},
		{Keys: bson.D{{Key: "collection", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create document indexes: %w", err)
	}

	return s, nil
}

// Ping checks connectivity to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) IsCollectionEmpty(ctx context.Context, path string) (bool, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return false, err
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"path": path}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", path, err)
	}
	return n == 0, nil
}

func (s *Store) FetchAll(ctx context.Context, path string) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"path": path}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", path, err)
	}
	return decodeCursor(ctx, cursor)
}

func (s *Store) FetchOne(ctx context.Context, path, id string) (docstore.Document, bool, error) {
	if err := docstore.ValidateKey(path, id); err != nil {
		return docstore.Document{}, false, err
	}

	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": key(path, id)}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, false, nil
		}
		return docstore.Document{}, false, fmt.Errorf("failed to fetch document %s/%s: %w", path, id, err)
	}
	return rec.document(), true, nil
}

func (s *Store) Set(ctx context.Context, path, id string, data json.RawMessage) error {
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	fields, err := scalarFields(data)
	if err != nil {
		return fmt.Errorf("failed to index document %s/%s: %w", path, id, err)
	}

	rec := record{
		Key:        key(path, id),
		Path:       path,
		Collection: docstore.CollectionName(path),
		DocID:      id,
		Data:       string(data),
		Fields:     fields,
		UpdatedAt:  time.Now().UTC(),
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.Key}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	if err := docstore.ValidateKey(path, id); err != nil {
		return err
	}

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key(path, id)}); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) QueryGroup(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	filter := bson.M{
		"collection":      collection,
		"fields." + field: value,
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "path", Value: 1}, {Key: "doc_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	return decodeCursor(ctx, cursor)
}

func decodeCursor(ctx context.Context, cursor *mongo.Cursor) ([]docstore.Document, error) {
	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	docs := make([]docstore.Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, rec.document())
	}
	return docs, nil
}

func (r record) document() docstore.Document {
	return docstore.Document{Path: r.Path, ID: r.DocID, Data: json.RawMessage(r.Data)}
}

func key(path, id string) string {
	return path + "/" + id
}

// scalarFields extracts top-level string, number and boolean values in their
// JSON text form. Group queries compare against these.
func scalarFields(data json.RawMessage) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, err
		}
		switch typed := v.(type) {
		case string:
			fields[name] = typed
		case float64, bool:
			fields[name] = string(value)
		}
	}
	return fields, nil
}
