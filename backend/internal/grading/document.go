package grading

import (
	"fmt"
	"strings"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// Field names of the persisted grading document
const (
	fieldCriteriaDefined = "criteriaDefined"
	fieldMarksOfStudents = "marksOfStudents"
	fieldAssessment      = "assessment"
	fieldWeightage       = "weightage"
	fieldTotalMarks      = "totalMarks"
	fieldStudentID       = "studentId"
	fieldMarks           = "marks"
	fieldGrade           = "grade"

	// marksGradeKey is the key the letter grade is mirrored under inside a
	// student's marks map
	marksGradeKey = "grade"
)

// Snapshot renders the full grading document:
//
//	{ criteriaDefined: [ { assessment, weightage, totalMarks } ],
//	  marksOfStudents: [ { studentId, marks: { assessment: number, grade }, grade } ] }
//
// Missing marks are left out of the marks map, never written as null.
func (s *Schema) Snapshot() recordstore.Document {
	criteria := make([]interface{}, 0, len(s.criteria))
	for _, c := range s.criteria {
		criteria = append(criteria, map[string]interface{}{
			fieldAssessment: c.Assessment,
			fieldWeightage:  string(c.Weightage),
			fieldTotalMarks: string(c.TotalMarks),
		})
	}

	students := make([]interface{}, 0, len(s.students))
	for _, id := range s.students {
		m := s.marks[id]
		marks := make(map[string]interface{}, len(m.Marks)+1)
		for name, v := range m.Marks {
			marks[name] = v
		}
		grade := s.Grade(id)
		marks[marksGradeKey] = grade
		students = append(students, map[string]interface{}{
			fieldStudentID: id,
			fieldMarks:     marks,
			fieldGrade:     grade,
		})
	}

	return recordstore.Document{
		fieldCriteriaDefined: criteria,
		fieldMarksOfStudents: students,
	}
}

// FromDocument validates a stored grading document and merges it over the
// roster. Roster students come first, in roster order, with grade I unless
// the document says otherwise; students only present in the document follow.
// Null or non-numeric marks are dropped. Marks under names no criterion
// defines are kept.
func FromDocument(sectionID string, doc recordstore.Document, roster []shared.Student) (*Schema, error) {
	s := NewSchema(sectionID)
	for _, st := range roster {
		s.EnsureStudent(st.ID)
	}
	if doc == nil {
		return s, nil
	}

	if raw, ok := doc[fieldCriteriaDefined]; ok && raw != nil {
		items, err := shared.GetArray(raw)
		if err != nil {
			return nil, malformed(sectionID, "criteriaDefined: %v", err)
		}
		for i, item := range items {
			c, err := criterionFromDocument(item)
			if err != nil {
				return nil, malformed(sectionID, "criteriaDefined[%d]: %v", i, err)
			}
			s.criteria = append(s.criteria, c)
		}
	}

	if raw, ok := doc[fieldMarksOfStudents]; ok && raw != nil {
		items, err := shared.GetArray(raw)
		if err != nil {
			return nil, malformed(sectionID, "marksOfStudents: %v", err)
		}
		for i, item := range items {
			if err := s.mergeStudentDocument(item); err != nil {
				return nil, malformed(sectionID, "marksOfStudents[%d]: %v", i, err)
			}
		}
	}

	return s, nil
}

func criterionFromDocument(item interface{}) (Criterion, error) {
	entry, err := shared.GetMap(item)
	if err != nil {
		return Criterion{}, err
	}
	name, err := shared.GetString(entry[fieldAssessment])
	if err != nil {
		return Criterion{}, fmt.Errorf("assessment: %v", err)
	}
	w, err := QuantityOf(entry[fieldWeightage])
	if err != nil {
		return Criterion{}, fmt.Errorf("weightage: %v", err)
	}
	t, err := QuantityOf(entry[fieldTotalMarks])
	if err != nil {
		return Criterion{}, fmt.Errorf("totalMarks: %v", err)
	}
	return Criterion{Assessment: name, Weightage: w, TotalMarks: t}, nil
}

func (s *Schema) mergeStudentDocument(item interface{}) error {
	entry, err := shared.GetMap(item)
	if err != nil {
		return err
	}
	id, err := shared.GetString(entry[fieldStudentID])
	if err != nil || id == "" {
		return fmt.Errorf("studentId is required")
	}
	row := s.row(id)

	var mirrored interface{}
	if raw, ok := entry[fieldMarks]; ok && raw != nil {
		marks, err := shared.GetMap(raw)
		if err != nil {
			return fmt.Errorf("marks: %v", err)
		}
		for name, v := range marks {
			if name == marksGradeKey {
				mirrored = v
				continue
			}
			if mark, ok := ParseMark(v); ok {
				row.Marks[name] = mark
			}
		}
	}

	grade := entry[fieldGrade]
	if blankGrade(grade) {
		grade = mirrored
	}
	if !blankGrade(grade) {
		letter, err := shared.GetString(grade)
		if err != nil || !shared.IsValidGrade(letter) {
			return fmt.Errorf("grade %v is not a letter grade", grade)
		}
		row.Grade = letter
	}
	return nil
}

// blankGrade reports a grade that was never entered: absent, null or empty
func blankGrade(v interface{}) bool {
	if v == nil {
		return true
	}
	str, ok := v.(string)
	return ok && strings.TrimSpace(str) == ""
}

func malformed(sectionID, format string, args ...interface{}) error {
	return shared.MalformedDocument(shared.CollectionStudentsMarks, sectionID, format, args...)
}
