package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classledger/backend/internal/shared"
)

var roster = []shared.Student{
	{ID: "s1", Name: "Ayesha"},
	{ID: "s2", Name: "Bilal"},
}

func newQuizSchema(t *testing.T) *Schema {
	t.Helper()
	s := NewSchema("sec-1")
	for _, st := range roster {
		s.EnsureStudent(st.ID)
	}
	require.NoError(t, s.AddCriterion("Quiz1", "20", "10"))
	return s
}

func TestAddCriterion(t *testing.T) {
	s := NewSchema("sec-1")

	require.NoError(t, s.AddCriterion("Quiz1", 20, 10))
	require.NoError(t, s.AddCriterion("Final", "90", "100"))
	require.NoError(t, s.AddCriterion("Quiz1", "5", "10"), "duplicates are not rejected")

	assert.Len(t, s.Criteria(), 3)
	assert.Equal(t, 115.0, s.TotalWeightage())
	assert.False(t, s.IsWeightageBalanced())

	c, ok := s.Criterion("Quiz1")
	require.True(t, ok)
	assert.Equal(t, Quantity("20"), c.Weightage, "first match wins")

	invalid := []struct {
		name, weightage, total string
	}{
		{"", "10", "10"},
		{"Lab", "", "10"},
		{"Lab", "10", ""},
		{"Lab", "ten", "10"},
		{"Lab", "0", "10"},
		{"Lab", "101", "10"},
		{"Lab", "10", "0"},
		{"grade", "10", "10"},
	}
	for _, tc := range invalid {
		err := s.AddCriterion(tc.name, tc.weightage, tc.total)
		assert.True(t, shared.IsValidationError(err), "%+v", tc)
	}
	assert.Len(t, s.Criteria(), 3, "rejected criteria are not appended")
}

func TestAddUpMarks(t *testing.T) {
	t.Run("Twice From Nothing", func(t *testing.T) {
		s := newQuizSchema(t)
		require.NoError(t, s.AddUpMarks("Quiz1", map[string]float64{"s1": 5}))
		require.NoError(t, s.AddUpMarks("Quiz1", map[string]float64{"s1": 5}))

		mark, ok := s.Mark("s1", "Quiz1")
		require.True(t, ok)
		assert.Equal(t, 10.0, mark)
	})

	t.Run("Adds To Set Mark", func(t *testing.T) {
		s := newQuizSchema(t)
		require.NoError(t, s.SetMark("s1", "Quiz1", 7))
		require.NoError(t, s.AddUpMarks("Quiz1", map[string]float64{"s1": 3}))

		mark, _ := s.Mark("s1", "Quiz1")
		assert.Equal(t, 10.0, mark)
	})

	t.Run("New Students In Id Order", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			s := newQuizSchema(t)
			require.NoError(t, s.AddUpMarks("Quiz1", map[string]float64{"s9": 1, "s4": 2, "s7": 3, "s5": 4}))
			assert.Equal(t, []string{"s1", "s2", "s4", "s5", "s7", "s9"}, s.Students())
		}
	})

	t.Run("Unknown Criterion", func(t *testing.T) {
		s := newQuizSchema(t)
		err := s.AddUpMarks("Quiz9", map[string]float64{"s1": 3})
		assert.True(t, shared.IsValidationError(err))
	})
}

func TestSetMark(t *testing.T) {
	s := newQuizSchema(t)

	require.NoError(t, s.SetMark("s1", "Quiz1", "8.5"))
	mark, ok := s.Mark("s1", "Quiz1")
	require.True(t, ok)
	assert.Equal(t, 8.5, mark)

	require.NoError(t, s.SetMark("s1", "Quiz1", ""))
	_, ok = s.Mark("s1", "Quiz1")
	assert.False(t, ok, "empty input removes the mark")

	require.NoError(t, s.SetMark("s1", "Quiz1", 4))
	require.NoError(t, s.SetMark("s1", "Quiz1", "abc"))
	_, ok = s.Mark("s1", "Quiz1")
	assert.False(t, ok, "non-numeric input removes the mark")

	assert.True(t, shared.IsValidationError(s.SetMark("s1", "Nope", 1)))
	assert.True(t, shared.IsValidationError(s.SetMark("", "Quiz1", 1)))
}

func TestWeightedContribution(t *testing.T) {
	s := newQuizSchema(t)
	require.NoError(t, s.SetMark("s1", "Quiz1", 7))

	v, ok := s.WeightedContribution("s1", "Quiz1")
	require.True(t, ok)
	assert.InDelta(t, 14.0, v, 1e-9)

	_, ok = s.WeightedContribution("s2", "Quiz1")
	assert.False(t, ok, "no mark is not zero")

	require.NoError(t, s.AddCriterion("Final", "80", "100"))
	require.NoError(t, s.SetMark("s1", "Final", 50))
	total, ok := s.WeightedTotal("s1")
	require.True(t, ok)
	assert.InDelta(t, 54.0, total, 1e-9)

	_, ok = s.WeightedTotal("s2")
	assert.False(t, ok)
}

func TestDeleteCriterion(t *testing.T) {
	s := newQuizSchema(t)
	require.NoError(t, s.AddCriterion("Final", "80", "100"))
	require.NoError(t, s.SetMark("s1", "Quiz1", 7))
	require.NoError(t, s.SetMark("s2", "Quiz1", 9))
	require.NoError(t, s.SetMark("s2", "Final", 60))

	require.NoError(t, s.DeleteCriterion("Quiz1"))

	assert.Len(t, s.Criteria(), 1)
	for _, st := range roster {
		assert.NotContains(t, s.Marks(st.ID), "Quiz1")
	}
	doc := s.Snapshot()
	for _, item := range doc[fieldMarksOfStudents].([]interface{}) {
		marks := item.(map[string]interface{})[fieldMarks].(map[string]interface{})
		assert.NotContains(t, marks, "Quiz1")
	}
	mark, ok := s.Mark("s2", "Final")
	require.True(t, ok)
	assert.Equal(t, 60.0, mark)

	assert.True(t, shared.IsValidationError(s.DeleteCriterion("Quiz1")))
}

func TestDeleteCriterion_DuplicateKeepsMarks(t *testing.T) {
	s := newQuizSchema(t)
	require.NoError(t, s.AddCriterion("Quiz1", "10", "10"))
	require.NoError(t, s.SetMark("s1", "Quiz1", 7))

	require.NoError(t, s.DeleteCriterion("Quiz1"))
	_, ok := s.Mark("s1", "Quiz1")
	assert.True(t, ok, "the remaining Quiz1 still owns the mark")

	require.NoError(t, s.DeleteCriterion("Quiz1"))
	_, ok = s.Mark("s1", "Quiz1")
	assert.False(t, ok)
}

func TestAllMarksEntered(t *testing.T) {
	s := newQuizSchema(t)
	require.NoError(t, s.AddCriterion("Final", "80", "100"))
	assert.False(t, s.AllMarksEntered(roster))

	pairs := [][2]string{{"s1", "Quiz1"}, {"s1", "Final"}, {"s2", "Quiz1"}}
	for _, p := range pairs {
		require.NoError(t, s.SetMark(p[0], p[1], 1))
		assert.False(t, s.AllMarksEntered(roster), "after %v", p)
	}

	require.NoError(t, s.SetMark("s2", "Final", 0))
	assert.True(t, s.AllMarksEntered(roster))

	require.NoError(t, s.SetMark("s2", "Final", ""))
	assert.False(t, s.AllMarksEntered(roster))
}

func TestSetGrade(t *testing.T) {
	s := newQuizSchema(t)
	assert.Equal(t, shared.GradeI, s.Grade("s1"))
	assert.Equal(t, shared.GradeI, s.Grade("unknown"))

	require.NoError(t, s.SetGrade("s1", "b+"))
	assert.Equal(t, shared.GradeBPlus, s.Grade("s1"))

	assert.True(t, shared.IsValidationError(s.SetGrade("s1", "E")))
	assert.Equal(t, shared.GradeBPlus, s.Grade("s1"))
}

func TestWarnings(t *testing.T) {
	s := newQuizSchema(t)
	require.NoError(t, s.AddCriterion("Quiz1", "10", "10"))
	require.NoError(t, s.SetMark("s1", "Quiz1", 3))

	kinds := map[string]bool{}
	for _, w := range s.Warnings(roster) {
		kinds[w.Kind] = true
	}
	assert.True(t, kinds[shared.WarnWeightageUnbalanced])
	assert.True(t, kinds[shared.WarnDuplicateCriterion])
	assert.True(t, kinds[shared.WarnMarksMissing])

	balanced := NewSchema("sec-2")
	require.NoError(t, balanced.AddCriterion("Final", "100", "100"))
	assert.Empty(t, balanced.Warnings(nil))
}

func TestClone_Independent(t *testing.T) {
	s := newQuizSchema(t)
	require.NoError(t, s.SetMark("s1", "Quiz1", 7))

	c := s.Clone()
	require.NoError(t, c.SetMark("s1", "Quiz1", 1))
	require.NoError(t, c.AddCriterion("Final", "80", "100"))

	mark, _ := s.Mark("s1", "Quiz1")
	assert.Equal(t, 7.0, mark)
	assert.Len(t, s.Criteria(), 1)
}
