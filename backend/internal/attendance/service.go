package attendance

import (
	"context"
	"log"

	"cloud.google.com/go/civil"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// Service runs the read-mutate-write cycle of a ledger against the record
// store. Each save reads the whole document, mutates a copy and writes the
// whole document back; two devices saving the same section concurrently are
// not reconciled and the later write wins.
type Service struct {
	store recordstore.Store
}

// NewService creates a Service over store
func NewService(store recordstore.Store) *Service {
	return &Service{store: store}
}

// Load reads the ledger of a section. A section with no document yet has an
// empty ledger.
func (s *Service) Load(ctx context.Context, sectionID string) (*Ledger, error) {
	if sectionID == "" {
		return nil, shared.NewValidationError("assign_course_id", "is required")
	}

	doc, err := s.store.Get(ctx, shared.CollectionAttendances, sectionID)
	if err != nil {
		if recordstore.IsNotFound(err) {
			return NewLedger(sectionID), nil
		}
		return nil, shared.NewStoreFailure("get", shared.CollectionAttendances, sectionID, err)
	}
	return FromDocument(sectionID, doc)
}

// Save upserts the attendance of one date and persists the full ledger. On
// error nothing has been written and the returned ledger is nil.
func (s *Service) Save(ctx context.Context, sectionID string, date civil.Date, presence map[string]bool) (*Ledger, error) {
	if !date.IsValid() {
		return nil, shared.NewValidationError("date", "is not a valid calendar date")
	}

	current, err := s.Load(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	replaced := next.Has(date)
	next.Upsert(date, presence)

	if err := s.store.Set(ctx, shared.CollectionAttendances, sectionID, ToDocument(next)); err != nil {
		log.Printf("ERROR: [Attendance] save %s/%s failed: %v", sectionID, date, err)
		return nil, shared.NewStoreFailure("set", shared.CollectionAttendances, sectionID, err)
	}

	if replaced {
		log.Printf("INFO: [Attendance] replaced %s record for section %s (%d students)", date, sectionID, len(presence))
	} else {
		log.Printf("INFO: [Attendance] added %s record for section %s (%d students)", date, sectionID, len(presence))
	}
	return next, nil
}

// Record returns the presence map for one date, empty when not recorded
func (s *Service) Record(ctx context.Context, sectionID string, date civil.Date) (map[string]bool, error) {
	ledger, err := s.Load(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return ledger.RecordFor(date), nil
}

// Latest returns the most recent record of a section
func (s *Service) Latest(ctx context.Context, sectionID string) (Record, bool, error) {
	ledger, err := s.Load(ctx, sectionID)
	if err != nil {
		return Record{}, false, err
	}
	r, ok := ledger.Latest()
	return r, ok, nil
}

// Dates lists the recorded dates of a section, oldest first
func (s *Service) Dates(ctx context.Context, sectionID string) ([]civil.Date, error) {
	ledger, err := s.Load(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return ledger.SortedDates(), nil
}
