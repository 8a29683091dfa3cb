package roster

import (
	"context"

	"classledger/backend/internal/shared"
)

// MemoryDirectory serves a fixture from memory
type MemoryDirectory struct {
	courses  map[string]string
	classes  map[string]string
	sections map[string]FixtureSection
	students []FixtureStudent
}

// NewMemoryDirectory indexes f. A nil fixture gives an empty directory.
func NewMemoryDirectory(f *Fixture) *MemoryDirectory {
	d := &MemoryDirectory{
		courses:  map[string]string{},
		classes:  map[string]string{},
		sections: map[string]FixtureSection{},
	}
	if f == nil {
		return d
	}
	for _, c := range f.Courses {
		d.courses[c.ID] = c.Name
	}
	for _, c := range f.Classes {
		d.classes[c.ID] = c.Name
	}
	for _, s := range f.Sections {
		d.sections[s.ID] = s
	}
	d.students = append(d.students, f.Students...)
	return d
}

func (d *MemoryDirectory) Section(ctx context.Context, assignCourseID string) (shared.CourseSection, error) {
	s, ok := d.sections[assignCourseID]
	if !ok {
		return shared.CourseSection{}, ErrSectionNotFound
	}
	return d.resolve(s), nil
}

func (d *MemoryDirectory) SectionsTaught(ctx context.Context, instructorID string) ([]shared.CourseSection, error) {
	sections := []shared.CourseSection{}
	for _, s := range d.sections {
		if s.InstructorID == instructorID {
			sections = append(sections, d.resolve(s))
		}
	}
	sortSections(sections)
	return sections, nil
}

func (d *MemoryDirectory) Enrolled(ctx context.Context, assignCourseID string) ([]shared.Student, error) {
	students := []shared.Student{}
	for _, st := range d.students {
		for _, id := range st.CurrentCourses {
			if id == assignCourseID {
				students = append(students, shared.Student{
					ID:             st.ID,
					Name:           st.Name,
					CurrentCourses: append([]string(nil), st.CurrentCourses...),
				})
				break
			}
		}
	}
	sortStudents(students)
	return students, nil
}

func (d *MemoryDirectory) resolve(s FixtureSection) shared.CourseSection {
	courseName, courseFound := d.courses[s.CourseID]
	className, classFound := d.classes[s.ClassID]
	return shared.CourseSection{
		ID:           s.ID,
		CourseID:     s.CourseID,
		ClassID:      s.ClassID,
		InstructorID: s.InstructorID,
		CourseName:   orUnknown(courseName, courseFound, shared.UnknownCourse),
		ClassName:    orUnknown(className, classFound, shared.UnknownClass),
	}
}
