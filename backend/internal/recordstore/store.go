// Package recordstore is the boundary to the remote document database that
// holds attendance ledgers, grading documents and rosters.
package recordstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the document does not exist. Update
// returns it wrapped in a StoreFailure, since a field merge needs a target.
var ErrNotFound = errors.New("document not found")

// DefaultTimeout bounds a single store call
const DefaultTimeout = 10 * time.Second

// Document is a loosely-typed document as the database returns it. Nested
// documents are map[string]interface{} and arrays are []interface{} no matter
// which driver produced them.
type Document map[string]interface{}

// Store is the get/set/update contract of the record store.
//
// The engines only use Get and Set on their own documents so that every save
// is a full snapshot. Update exists for administrative callers.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Update(ctx context.Context, collection, id string, partial Document) error
}

// IsNotFound reports whether err means the document is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
