// ============================================================================
// backend/internal/shared/errors.go
// Error taxonomy shared by the attendance and grading engines
// ============================================================================

package shared

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError is returned when a required input is blank or malformed.
// Nothing has been mutated when it is returned.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError builds a ValidationError for one field
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err (or its cause) is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Warning kinds
const (
	WarnWeightageUnbalanced = "weightage_unbalanced"
	WarnMarksMissing        = "marks_missing"
	WarnDuplicateCriterion  = "duplicate_criterion"
	WarnAttendanceMissing   = "attendance_missing"
)

// IncompleteInputWarning is advisory. It never blocks a save on its own.
type IncompleteInputWarning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (w IncompleteInputWarning) String() string {
	return w.Message
}

// StoreFailure wraps a Record Store read or write failure. Error() returns the
// underlying message unchanged so callers can display it as-is.
type StoreFailure struct {
	Op         string
	Collection string
	DocumentID string
	Err        error
}

// NewStoreFailure wraps err unless it already is a StoreFailure
func NewStoreFailure(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	if IsStoreFailure(err) {
		return err
	}
	return &StoreFailure{Op: op, Collection: collection, DocumentID: id, Err: errors.WithStack(err)}
}

// MalformedDocument reports a document that failed boundary validation
func MalformedDocument(collection, id, format string, args ...interface{}) error {
	return &StoreFailure{
		Op:         "decode",
		Collection: collection,
		DocumentID: id,
		Err:        fmt.Errorf("malformed %s document %q: %s", collection, id, fmt.Sprintf(format, args...)),
	}
}

func (e *StoreFailure) Error() string {
	return e.Err.Error()
}

func (e *StoreFailure) Unwrap() error { return e.Err }

// IsStoreFailure reports whether err is, or wraps, a StoreFailure
func IsStoreFailure(err error) bool {
	var sf *StoreFailure
	return errors.As(err, &sf)
}
