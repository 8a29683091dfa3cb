package grading

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"classledger/backend/internal/shared"
)

// MarkSet is one student's row of the mark table
type MarkSet struct {
	Marks map[string]float64
	Grade string
}

func newMarkSet() *MarkSet {
	return &MarkSet{Marks: map[string]float64{}, Grade: shared.GradeI}
}

func (m *MarkSet) clone() *MarkSet {
	out := &MarkSet{Marks: make(map[string]float64, len(m.Marks)), Grade: m.Grade}
	for k, v := range m.Marks {
		out.Marks[k] = v
	}
	return out
}

// Schema is the grading criteria of one section together with its mark
// table. Assessment names are expected to be unique; when they are not, the
// first criterion with a name is the one lookups use. A Schema is not safe
// for concurrent use.
type Schema struct {
	SectionID string

	criteria []Criterion
	students []string
	marks    map[string]*MarkSet
	focus    *editFocus
}

// NewSchema returns an empty schema
func NewSchema(sectionID string) *Schema {
	return &Schema{SectionID: sectionID, marks: map[string]*MarkSet{}}
}

// ============================================================================
// Criteria
// ============================================================================

// Criteria returns a copy of the criteria in order
func (s *Schema) Criteria() []Criterion {
	return append([]Criterion(nil), s.criteria...)
}

// Criterion returns the first criterion named name
func (s *Schema) Criterion(name string) (Criterion, bool) {
	if i := s.indexOf(name); i >= 0 {
		return s.criteria[i], true
	}
	return Criterion{}, false
}

// AddCriterion appends a criterion. Blank fields are rejected; a duplicate
// name or a cumulative weightage above 100 is not (see Warnings).
func (s *Schema) AddCriterion(name string, weightage, totalMarks interface{}) error {
	w, err := QuantityOf(weightage)
	if err != nil {
		return shared.NewValidationError("weightage", "%v", err)
	}
	t, err := QuantityOf(totalMarks)
	if err != nil {
		return shared.NewValidationError("totalMarks", "%v", err)
	}

	c := Criterion{Assessment: strings.TrimSpace(name), Weightage: w, TotalMarks: t}
	if err := c.Validate(); err != nil {
		return err
	}
	s.criteria = append(s.criteria, c)
	return nil
}

// EditCriterion changes the criterion currently named name, moving the edit
// focus onto it. Fields may be left blank mid-edit; SaveEdit validates them.
func (s *Schema) EditCriterion(name string, patch CriterionPatch) error {
	i := s.focusedIndexOf(name)
	if i < 0 {
		return unknownCriterion(name)
	}
	if err := s.startEditAt(i); err != nil {
		return err
	}
	patch.apply(&s.criteria[i])
	return nil
}

// DeleteCriterion removes a criterion and drops its marks from every student
func (s *Schema) DeleteCriterion(name string) error {
	i := s.focusedIndexOf(name)
	if i < 0 {
		return unknownCriterion(name)
	}

	purge := []string{s.criteria[i].Assessment}
	if s.focus != nil {
		switch {
		case s.focus.index == i:
			purge = append(purge, s.focus.original.Assessment)
			s.focus = nil
		case s.focus.index > i:
			s.focus.index--
		}
	}

	s.criteria = append(s.criteria[:i], s.criteria[i+1:]...)
	for _, key := range purge {
		if s.indexOf(key) >= 0 {
			// still defined by a duplicate
			continue
		}
		for _, m := range s.marks {
			delete(m.Marks, key)
		}
	}
	return nil
}

// TotalWeightage sums the weightage of every criterion with a numeric one
func (s *Schema) TotalWeightage() float64 {
	var total float64
	for _, c := range s.criteria {
		if w, ok := c.Weightage.Float(); ok {
			total += w
		}
	}
	return total
}

// IsWeightageBalanced reports whether the weightages add up to 100. Advisory.
func (s *Schema) IsWeightageBalanced() bool {
	return math.Abs(s.TotalWeightage()-100) < 1e-9
}

// AllCriteriaFilled reports whether no criterion has a blank field
func (s *Schema) AllCriteriaFilled() bool {
	for _, c := range s.criteria {
		if !c.Filled() {
			return false
		}
	}
	return true
}

// ============================================================================
// Marks
// ============================================================================

// Students returns the ids in the mark table in order
func (s *Schema) Students() []string {
	return append([]string(nil), s.students...)
}

// EnsureStudent adds a row for a student if it is missing. New rows carry
// the grade I.
func (s *Schema) EnsureStudent(studentID string) {
	s.row(studentID)
}

func (s *Schema) row(studentID string) *MarkSet {
	m, ok := s.marks[studentID]
	if !ok {
		m = newMarkSet()
		s.marks[studentID] = m
		s.students = append(s.students, studentID)
	}
	return m
}

// SetMark overwrites one raw mark. Empty or non-numeric input removes the
// mark instead of recording zero.
func (s *Schema) SetMark(studentID, assessment string, raw interface{}) error {
	if studentID == "" {
		return shared.NewValidationError("studentId", "is required")
	}
	if s.indexOf(assessment) < 0 {
		return unknownCriterion(assessment)
	}

	m := s.row(studentID)
	if mark, ok := ParseMark(raw); ok {
		m.Marks[assessment] = mark
	} else {
		delete(m.Marks, assessment)
	}
	return nil
}

// AddUpMarks adds each student's delta to their current mark for assessment,
// starting from 0 when there is none.
func (s *Schema) AddUpMarks(assessment string, deltas map[string]float64) error {
	if s.indexOf(assessment) < 0 {
		return unknownCriterion(assessment)
	}
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	// students new to the table are appended in id order
	sort.Strings(ids)
	for _, studentID := range ids {
		delta := deltas[studentID]
		if studentID == "" || math.IsNaN(delta) || math.IsInf(delta, 0) {
			continue
		}
		m := s.row(studentID)
		m.Marks[assessment] += delta
	}
	return nil
}

// Mark returns a student's raw mark for assessment
func (s *Schema) Mark(studentID, assessment string) (float64, bool) {
	m, ok := s.marks[studentID]
	if !ok {
		return 0, false
	}
	mark, ok := m.Marks[assessment]
	return mark, ok
}

// Marks returns a copy of a student's raw marks
func (s *Schema) Marks(studentID string) map[string]float64 {
	out := map[string]float64{}
	if m, ok := s.marks[studentID]; ok {
		for k, v := range m.Marks {
			out[k] = v
		}
	}
	return out
}

// SetGrade overwrites a student's letter grade
func (s *Schema) SetGrade(studentID, grade string) error {
	if studentID == "" {
		return shared.NewValidationError("studentId", "is required")
	}
	grade = strings.ToUpper(strings.TrimSpace(grade))
	if !shared.IsValidGrade(grade) {
		return shared.NewValidationError("grade", "%q is not one of %s", grade, strings.Join(shared.LetterGrades, ", "))
	}
	s.row(studentID).Grade = grade
	return nil
}

// Grade returns a student's letter grade, I when never set
func (s *Schema) Grade(studentID string) string {
	if m, ok := s.marks[studentID]; ok && m.Grade != "" {
		return m.Grade
	}
	return shared.GradeI
}

// WeightedContribution scales a raw mark to the criterion's weightage:
// mark / totalMarks * weightage. ok is false when the student has no mark,
// which is not the same as scoring zero.
func (s *Schema) WeightedContribution(studentID, assessment string) (float64, bool) {
	c, found := s.Criterion(assessment)
	if !found {
		return 0, false
	}
	mark, ok := s.Mark(studentID, assessment)
	if !ok {
		return 0, false
	}
	w, wok := c.Weightage.Float()
	total, tok := c.TotalMarks.Float()
	if !wok || !tok || total == 0 {
		return 0, false
	}
	return mark / total * w, true
}

// WeightedTotal sums the available weighted contributions of a student. ok
// is false when the student has no marked criterion at all.
func (s *Schema) WeightedTotal(studentID string) (float64, bool) {
	var (
		sum    float64
		marked bool
	)
	seen := map[string]bool{}
	for _, c := range s.criteria {
		if seen[c.Assessment] {
			continue
		}
		seen[c.Assessment] = true
		if v, ok := s.WeightedContribution(studentID, c.Assessment); ok {
			sum += v
			marked = true
		}
	}
	return sum, marked
}

// AllMarksEntered reports whether every roster student has a mark for every
// criterion
func (s *Schema) AllMarksEntered(roster []shared.Student) bool {
	for _, st := range roster {
		for _, c := range s.criteria {
			if _, ok := s.Mark(st.ID, c.Assessment); !ok {
				return false
			}
		}
	}
	return true
}

// Warnings lists advisory problems. None of them block a save by itself.
func (s *Schema) Warnings(roster []shared.Student) []shared.IncompleteInputWarning {
	var warnings []shared.IncompleteInputWarning

	if len(s.criteria) > 0 && !s.IsWeightageBalanced() {
		warnings = append(warnings, shared.IncompleteInputWarning{
			Kind:    shared.WarnWeightageUnbalanced,
			Message: fmt.Sprintf("total weightage is %s%%, expected 100%%", shared.FormatNumber(s.TotalWeightage())),
		})
	}

	seen := map[string]bool{}
	for _, c := range s.criteria {
		if seen[c.Assessment] {
			warnings = append(warnings, shared.IncompleteInputWarning{
				Kind:    shared.WarnDuplicateCriterion,
				Message: fmt.Sprintf("more than one criterion is named %q; marks are shared: %s", c.Assessment, describe(c)),
			})
		}
		seen[c.Assessment] = true
	}

	missing := 0
	for _, st := range roster {
		for name := range seen {
			if _, ok := s.Mark(st.ID, name); !ok {
				missing++
			}
		}
	}
	if missing > 0 {
		warnings = append(warnings, shared.IncompleteInputWarning{
			Kind:    shared.WarnMarksMissing,
			Message: fmt.Sprintf("%d marks not entered yet", missing),
		})
	}

	return warnings
}

// Clone returns a deep copy, edit focus included
func (s *Schema) Clone() *Schema {
	out := &Schema{
		SectionID: s.SectionID,
		criteria:  s.Criteria(),
		students:  s.Students(),
		marks:     make(map[string]*MarkSet, len(s.marks)),
	}
	for id, m := range s.marks {
		out.marks[id] = m.clone()
	}
	if s.focus != nil {
		f := *s.focus
		out.focus = &f
	}
	return out
}

func (s *Schema) indexOf(name string) int {
	for i, c := range s.criteria {
		if c.Assessment == name {
			return i
		}
	}
	return -1
}

// focusedIndexOf prefers the criterion under edit when its current name
// matches, so a renamed duplicate is still reachable.
func (s *Schema) focusedIndexOf(name string) int {
	if s.focus != nil && s.criteria[s.focus.index].Assessment == name {
		return s.focus.index
	}
	return s.indexOf(name)
}
