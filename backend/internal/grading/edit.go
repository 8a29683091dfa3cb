package grading

import "classledger/backend/internal/shared"

// editFocus tracks the one criterion being edited and its fields as they
// were when the edit began.
type editFocus struct {
	index    int
	original Criterion
}

// StartEdit puts a criterion in editing focus. A criterion already in focus
// is committed first; if it does not validate, focus stays on it and the
// validation error is returned.
func (s *Schema) StartEdit(name string) error {
	i := s.focusedIndexOf(name)
	if i < 0 {
		return unknownCriterion(name)
	}
	return s.startEditAt(i)
}

func (s *Schema) startEditAt(i int) error {
	if s.focus != nil {
		if s.focus.index == i {
			return nil
		}
		if err := s.SaveEdit(); err != nil {
			return err
		}
	}
	s.focus = &editFocus{index: i, original: s.criteria[i]}
	return nil
}

// Editing returns the current name of the criterion in focus
func (s *Schema) Editing() (string, bool) {
	if s.focus == nil {
		return "", false
	}
	return s.criteria[s.focus.index].Assessment, true
}

// SaveEdit validates the criterion in focus and leaves editing. On a
// validation error the criterion stays in focus.
func (s *Schema) SaveEdit() error {
	if s.focus == nil {
		return shared.NewValidationError("assessment", "no criterion is being edited")
	}
	if err := s.criteria[s.focus.index].Validate(); err != nil {
		return err
	}
	s.commitFocus()
	return nil
}

// CancelEdit restores the criterion in focus and leaves editing. It does
// nothing when no criterion is in focus.
func (s *Schema) CancelEdit() {
	if s.focus == nil {
		return
	}
	s.criteria[s.focus.index] = s.focus.original
	s.focus = nil
}

// commitFocus ends the edit, moving marks from the old name to the new one
// when the old name is no longer defined. A mark already present under the
// new name wins.
func (s *Schema) commitFocus() {
	f := s.focus
	s.focus = nil

	from := f.original.Assessment
	to := s.criteria[f.index].Assessment
	if from == to || s.indexOf(from) >= 0 {
		return
	}

	for _, m := range s.marks {
		mark, ok := m.Marks[from]
		if !ok {
			continue
		}
		delete(m.Marks, from)
		if to == "" {
			continue
		}
		if _, taken := m.Marks[to]; !taken {
			m.Marks[to] = mark
		}
	}
}
