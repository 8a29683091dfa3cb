package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"classledger/backend/internal/shared"
)

// RedisStore keeps every document as a JSON string under
// "<prefix>:<collection>:<id>".
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a RedisStore over client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, timeout: DefaultTimeout}
}

func (s *RedisStore) key(collection, id string) string {
	if s.prefix == "" {
		return collection + ":" + id
	}
	return s.prefix + ":" + collection + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Get(queryCtx, s.key(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, shared.NewStoreFailure("get", collection, id, err)
	}
	return decodeJSONDocument(collection, id, raw)
}

func (s *RedisStore) Set(ctx context.Context, collection, id string, doc Document) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(doc)
	if err != nil {
		return shared.NewStoreFailure("set", collection, id, err)
	}
	if err := s.client.Set(queryCtx, s.key(collection, id), data, 0).Err(); err != nil {
		return shared.NewStoreFailure("set", collection, id, err)
	}
	return nil
}

// Update merges top-level fields under WATCH so a concurrent writer aborts
// the transaction instead of being silently lost.
func (s *RedisStore) Update(ctx context.Context, collection, id string, partial Document) error {
	if len(partial) == 0 {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.key(collection, id)
	err := s.client.Watch(queryCtx, func(tx *redis.Tx) error {
		raw, err := tx.Get(queryCtx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}

		doc, err := decodeJSONDocument(collection, id, raw)
		if err != nil {
			return err
		}
		for k, v := range partial {
			doc[k] = v
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(queryCtx, func(pipe redis.Pipeliner) error {
			pipe.Set(queryCtx, key, data, 0)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return shared.NewStoreFailure("update", collection, id, err)
	}
	return nil
}

func decodeJSONDocument(collection, id string, raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, shared.MalformedDocument(collection, id, "%v", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
