package recordstore

import (
	"context"
	"encoding/json"
	"sync"

	"classledger/backend/internal/shared"
)

// MemoryStore is an in-process Store. Documents go through a JSON round trip
// on every write, so readers see the same loosely-typed shapes a remote
// database hands back (numbers as float64, nested maps untyped).
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[string][]byte
	failures map[string]error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string][]byte),
		failures: make(map[string]error),
	}
}

// FailOn makes every subsequent call of op ("get", "set", "update") fail
// with err. A nil err clears it.
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failures["get"]; err != nil {
		return nil, shared.NewStoreFailure("get", collection, id, err)
	}
	raw, ok := s.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeJSONDocument(collection, id, raw)
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures["set"]; err != nil {
		return shared.NewStoreFailure("set", collection, id, err)
	}
	return s.put(collection, id, doc)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures["update"]; err != nil {
		return shared.NewStoreFailure("update", collection, id, err)
	}
	raw, ok := s.docs[collection][id]
	if !ok {
		return shared.NewStoreFailure("update", collection, id, ErrNotFound)
	}
	doc, err := decodeJSONDocument(collection, id, raw)
	if err != nil {
		return err
	}
	for k, v := range partial {
		doc[k] = v
	}
	return s.put(collection, id, doc)
}

// IDs lists the ids stored in a collection, unordered
func (s *MemoryStore) IDs(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs[collection]))
	for id := range s.docs[collection] {
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryStore) put(collection, id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return shared.NewStoreFailure("set", collection, id, err)
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	s.docs[collection][id] = data
	return nil
}
