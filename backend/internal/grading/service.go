package grading

import (
	"context"
	"log"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// Service loads and saves grading schemas against the record store. Saves
// always write the full snapshot.
type Service struct {
	store recordstore.Store
}

// NewService creates a Service over store
func NewService(store recordstore.Store) *Service {
	return &Service{store: store}
}

// Load reads the schema of a section and merges it over roster. A section
// with no document yet gets an empty criteria list and every roster student
// at grade I.
func (s *Service) Load(ctx context.Context, sectionID string, roster []shared.Student) (*Schema, error) {
	if sectionID == "" {
		return nil, shared.NewValidationError("assign_course_id", "is required")
	}

	doc, err := s.store.Get(ctx, shared.CollectionStudentsMarks, sectionID)
	if err != nil {
		if !recordstore.IsNotFound(err) {
			return nil, shared.NewStoreFailure("get", shared.CollectionStudentsMarks, sectionID, err)
		}
		doc = nil
	}

	schema, err := FromDocument(sectionID, doc, roster)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: [Grading] loaded section %s: %d criteria, %d students", sectionID, len(schema.criteria), len(schema.students))
	return schema, nil
}

// Save commits any criterion still in editing focus and persists the full
// snapshot. On a validation error or a store failure nothing is written and
// schema is left as it was.
func (s *Service) Save(ctx context.Context, schema *Schema) error {
	next := schema.Clone()
	if _, editing := next.Editing(); editing {
		if err := next.SaveEdit(); err != nil {
			return err
		}
	}

	if err := s.store.Set(ctx, shared.CollectionStudentsMarks, next.SectionID, next.Snapshot()); err != nil {
		log.Printf("ERROR: [Grading] save %s failed: %v", next.SectionID, err)
		return shared.NewStoreFailure("set", shared.CollectionStudentsMarks, next.SectionID, err)
	}

	*schema = *next
	log.Printf("INFO: [Grading] saved section %s: %d criteria, %d students", next.SectionID, len(next.criteria), len(next.students))
	return nil
}
