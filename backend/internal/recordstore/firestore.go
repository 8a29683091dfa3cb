package recordstore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"classledger/backend/internal/shared"
)

// FirestoreStore maps collections and ids one to one onto Firestore.
type FirestoreStore struct {
	client  *firestore.Client
	timeout time.Duration
}

// NewFirestoreStore creates a FirestoreStore over client
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, timeout: DefaultTimeout}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.client.Collection(collection).Doc(id).Get(queryCtx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, shared.NewStoreFailure("get", collection, id, err)
	}
	if !snap.Exists() {
		return nil, ErrNotFound
	}
	return Document(snap.Data()), nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc Document) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.Collection(collection).Doc(id).Set(queryCtx, map[string]interface{}(doc)); err != nil {
		return shared.NewStoreFailure("set", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, partial Document) error {
	if len(partial) == 0 {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	paths := make([]string, 0, len(partial))
	for k := range partial {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	updates := make([]firestore.Update, 0, len(paths))
	for _, p := range paths {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{p}, Value: partial[p]})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(queryCtx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return shared.NewStoreFailure("update", collection, id, ErrNotFound)
		}
		return shared.NewStoreFailure("update", collection, id, err)
	}
	return nil
}
