package recordstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classledger/backend/internal/shared"
)

// MongoStore keeps each document in the collection of the same name, keyed
// by _id.
type MongoStore struct {
	db      *mongo.Database
	timeout time.Duration
}

// NewMongoStore creates a MongoStore over db
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, timeout: DefaultTimeout}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var raw bson.M
	err := s.db.Collection(collection).FindOne(queryCtx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, shared.NewStoreFailure("get", collection, id, err)
	}

	delete(raw, "_id")
	return Document(normalizeMap(raw)), nil
}

func (s *MongoStore) Set(ctx context.Context, collection, id string, doc Document) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	replacement := bson.M{"_id": id}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		replacement[k] = v
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(collection).ReplaceOne(queryCtx, bson.M{"_id": id}, replacement, opts); err != nil {
		return shared.NewStoreFailure("set", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, partial Document) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields := bson.M{}
	for k, v := range partial {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil
	}

	result, err := s.db.Collection(collection).UpdateOne(queryCtx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return shared.NewStoreFailure("update", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return shared.NewStoreFailure("update", collection, id, ErrNotFound)
	}
	return nil
}

// normalizeMap converts the BSON container types the driver decodes into
// plain maps and slices.
func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.M:
		return normalizeMap(val)
	case map[string]interface{}:
		return normalizeMap(val)
	case primitive.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case primitive.A:
		return normalizeSlice(val)
	case []interface{}:
		return normalizeSlice(val)
	case primitive.DateTime:
		return val.Time().UTC()
	default:
		return v
	}
}

func normalizeSlice(items []interface{}) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = normalizeValue(item)
	}
	return out
}
