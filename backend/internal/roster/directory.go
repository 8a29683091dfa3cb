// Package roster looks up course sections and the students enrolled in them.
// Rosters are read-only here; they are maintained outside this system.
package roster

import (
	"context"
	"errors"
	"sort"

	"classledger/backend/internal/shared"
)

// ErrSectionNotFound is returned when an assigned course id is unknown
var ErrSectionNotFound = errors.New("section not found")

// Directory is the read side of the roster collections
type Directory interface {
	// Section resolves an assigned course with its course and class names
	Section(ctx context.Context, assignCourseID string) (shared.CourseSection, error)
	// SectionsTaught lists the sections of an instructor ordered by id
	SectionsTaught(ctx context.Context, instructorID string) ([]shared.CourseSection, error)
	// Enrolled lists the students whose current courses include the section,
	// ordered by id
	Enrolled(ctx context.Context, assignCourseID string) ([]shared.Student, error)
}

// IsSectionNotFound reports whether err means the section does not exist
func IsSectionNotFound(err error) bool {
	return errors.Is(err, ErrSectionNotFound)
}

func sortSections(sections []shared.CourseSection) {
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
}

func sortStudents(students []shared.Student) {
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
}

func orUnknown(name string, found bool, fallback string) string {
	if !found || name == "" {
		return fallback
	}
	return name
}
