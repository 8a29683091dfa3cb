// Package grading maintains a section's grading criteria and the per-student
// mark table, and computes weighted scores from them.
package grading

import (
	"fmt"
	"math"
	"strings"

	"classledger/backend/internal/shared"
)

// Quantity is a numeric criterion field kept in the form the instructor
// typed it, so a saved schema reloads unchanged. It may be blank while a
// criterion is being edited.
type Quantity string

// QuantityOf accepts text or any numeric type
func QuantityOf(v interface{}) (Quantity, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case Quantity:
		return val, nil
	case string:
		return Quantity(strings.TrimSpace(val)), nil
	default:
		f, err := shared.GetFloat64(v)
		if err != nil {
			return "", err
		}
		return Quantity(shared.FormatNumber(f)), nil
	}
}

// IsBlank reports an empty field
func (q Quantity) IsBlank() bool {
	return strings.TrimSpace(string(q)) == ""
}

// Float parses the quantity; ok is false for blank or non-numeric text
func (q Quantity) Float() (float64, bool) {
	if q.IsBlank() {
		return 0, false
	}
	f, err := shared.GetFloat64(string(q))
	if err != nil {
		return 0, false
	}
	return f, true
}

func (q Quantity) String() string { return string(q) }

// Criterion is one weighted assessment
type Criterion struct {
	Assessment string   `json:"assessment"`
	Weightage  Quantity `json:"weightage"`
	TotalMarks Quantity `json:"totalMarks"`
}

// Filled reports whether all three fields are present
func (c Criterion) Filled() bool {
	return strings.TrimSpace(c.Assessment) != "" && !c.Weightage.IsBlank() && !c.TotalMarks.IsBlank()
}

// Validate checks a criterion ready to be committed. Cumulative weightage and
// duplicate names are not its concern.
func (c Criterion) Validate() error {
	name := strings.TrimSpace(c.Assessment)
	if name == "" {
		return shared.NewValidationError("assessment", "is required")
	}
	if name == marksGradeKey {
		return shared.NewValidationError("assessment", "%q is reserved for the letter grade", marksGradeKey)
	}
	if c.Weightage.IsBlank() {
		return shared.NewValidationError("weightage", "is required")
	}
	if c.TotalMarks.IsBlank() {
		return shared.NewValidationError("totalMarks", "is required")
	}

	w, ok := c.Weightage.Float()
	if !ok {
		return shared.NewValidationError("weightage", "must be a number, got %q", c.Weightage)
	}
	if w <= 0 || w > 100 {
		return shared.NewValidationError("weightage", "must be in (0, 100], got %s", c.Weightage)
	}
	total, ok := c.TotalMarks.Float()
	if !ok {
		return shared.NewValidationError("totalMarks", "must be a number, got %q", c.TotalMarks)
	}
	if total <= 0 {
		return shared.NewValidationError("totalMarks", "must be positive, got %s", c.TotalMarks)
	}
	return nil
}

// CriterionPatch changes some fields of a criterion. Nil fields are left alone.
type CriterionPatch struct {
	Assessment *string
	Weightage  *Quantity
	TotalMarks *Quantity
}

func (p CriterionPatch) apply(c *Criterion) {
	if p.Assessment != nil {
		c.Assessment = strings.TrimSpace(*p.Assessment)
	}
	if p.Weightage != nil {
		c.Weightage = Quantity(strings.TrimSpace(string(*p.Weightage)))
	}
	if p.TotalMarks != nil {
		c.TotalMarks = Quantity(strings.TrimSpace(string(*p.TotalMarks)))
	}
}

// ParseMark turns typed or textual input into a raw mark. ok is false for
// empty, non-numeric or non-finite input, which callers treat as "no mark".
func ParseMark(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if s, isText := v.(string); isText && strings.TrimSpace(s) == "" {
		return 0, false
	}
	f, err := shared.GetFloat64(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func unknownCriterion(name string) error {
	return shared.NewValidationError("assessment", "no criterion named %q", name)
}

func describe(c Criterion) string {
	return fmt.Sprintf("%s (%s%%, out of %s)", c.Assessment, c.Weightage, c.TotalMarks)
}
