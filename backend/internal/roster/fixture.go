package roster

import (
	"encoding/json"
	"fmt"
	"os"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// Fixture is a roster snapshot in JSON form. The seeder writes it into the
// record store and the memory directory serves it directly.
type Fixture struct {
	Courses  []NamedEntry     `json:"courses"`
	Classes  []NamedEntry     `json:"classes"`
	Sections []FixtureSection `json:"sections"`
	Students []FixtureStudent `json:"students"`
}

// NamedEntry is a course or a class
type NamedEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FixtureSection is an assigned course
type FixtureSection struct {
	ID           string `json:"assign_course_id"`
	CourseID     string `json:"course_id"`
	ClassID      string `json:"class_id"`
	InstructorID string `json:"instructor_id"`
}

// FixtureStudent is a student with the sections they currently attend
type FixtureStudent struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CurrentCourses []string `json:"current_courses"`
}

// LoadFixture reads a fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}
	return &f, nil
}

// Documents renders the fixture as record store documents, keyed by
// collection and then by document id
func (f *Fixture) Documents() map[string]map[string]recordstore.Document {
	docs := map[string]map[string]recordstore.Document{
		shared.CollectionCourses:       {},
		shared.CollectionClasses:       {},
		shared.CollectionAssignCourses: {},
		shared.CollectionStudents:      {},
	}
	for _, c := range f.Courses {
		docs[shared.CollectionCourses][c.ID] = recordstore.Document{"name": c.Name}
	}
	for _, c := range f.Classes {
		docs[shared.CollectionClasses][c.ID] = recordstore.Document{"name": c.Name}
	}
	for _, s := range f.Sections {
		docs[shared.CollectionAssignCourses][s.ID] = recordstore.Document{
			"courseId":     s.CourseID,
			"classId":      s.ClassID,
			"instructorId": s.InstructorID,
		}
	}
	for _, s := range f.Students {
		courses := make([]interface{}, 0, len(s.CurrentCourses))
		for _, id := range s.CurrentCourses {
			courses = append(courses, id)
		}
		docs[shared.CollectionStudents][s.ID] = recordstore.Document{
			"name":           s.Name,
			"currentCourses": courses,
		}
	}
	return docs
}
