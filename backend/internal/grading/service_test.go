package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

func TestSnapshot_RoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	svc := NewService(store)

	s, err := svc.Load(ctx, "sec-1", roster)
	require.NoError(t, err)
	require.NoError(t, s.AddCriterion("Quiz1", "20", "10"))
	require.NoError(t, s.AddCriterion("Midterm", "30.5", "50"))
	require.NoError(t, s.AddCriterion("Final", 49.5, 100))
	require.NoError(t, s.SetMark("s1", "Quiz1", 7))
	require.NoError(t, s.SetMark("s1", "Midterm", 42.25))
	require.NoError(t, s.SetMark("s2", "Final", 88))
	require.NoError(t, s.SetGrade("s1", shared.GradeAMinus))

	require.NoError(t, svc.Save(ctx, s))

	back, err := svc.Load(ctx, "sec-1", roster)
	require.NoError(t, err)

	assert.Equal(t, s.Criteria(), back.Criteria())
	assert.Equal(t, s.Students(), back.Students())
	for _, id := range s.Students() {
		assert.Equal(t, s.Marks(id), back.Marks(id), id)
		assert.Equal(t, s.Grade(id), back.Grade(id), id)
	}
	assert.Equal(t, shared.GradeI, back.Grade("s2"))
}

func TestService_LoadSeedsRoster(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, shared.CollectionStudentsMarks, "sec-1", recordstore.Document{
		"criteriaDefined": []interface{}{
			map[string]interface{}{"assessment": "Quiz1", "weightage": 20, "totalMarks": "10"},
		},
		"marksOfStudents": []interface{}{
			map[string]interface{}{
				"studentId": "s9",
				"marks":     map[string]interface{}{"Quiz1": 4, "Old": 2, "Lab": nil, "grade": "B"},
			},
			map[string]interface{}{
				"studentId": "s2",
				"marks":     map[string]interface{}{"Quiz1": 8},
				"grade":     "A",
			},
		},
	}))

	s, err := NewService(store).Load(ctx, "sec-1", roster)
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "s2", "s9"}, s.Students())
	assert.Equal(t, shared.GradeI, s.Grade("s1"))
	assert.Equal(t, shared.GradeA, s.Grade("s2"))
	assert.Equal(t, shared.GradeB, s.Grade("s9"), "grade mirrored in marks")
	assert.Equal(t, map[string]float64{"Quiz1": 4, "Old": 2}, s.Marks("s9"))

	c, ok := s.Criterion("Quiz1")
	require.True(t, ok)
	assert.Equal(t, Quantity("20"), c.Weightage)
}

func TestFromDocument_Malformed(t *testing.T) {
	docs := map[string]recordstore.Document{
		"criteria not array":  {"criteriaDefined": "Quiz1"},
		"criterion name":      {"criteriaDefined": []interface{}{map[string]interface{}{"assessment": 3}}},
		"criterion weightage": {"criteriaDefined": []interface{}{map[string]interface{}{"assessment": "Q", "weightage": true}}},
		"marks not array":     {"marksOfStudents": map[string]interface{}{}},
		"missing student id":  {"marksOfStudents": []interface{}{map[string]interface{}{"marks": map[string]interface{}{}}}},
		"bad grade":           {"marksOfStudents": []interface{}{map[string]interface{}{"studentId": "s1", "grade": "E"}}},
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := FromDocument("sec-1", doc, roster)
			require.Error(t, err)
			assert.True(t, shared.IsStoreFailure(err))
		})
	}
}

func TestFromDocument_BlankGrade(t *testing.T) {
	doc := recordstore.Document{
		"marksOfStudents": []interface{}{
			map[string]interface{}{"studentId": "s1", "grade": "", "marks": map[string]interface{}{"grade": "B+"}},
			map[string]interface{}{"studentId": "s2", "grade": "", "marks": map[string]interface{}{"grade": ""}},
			map[string]interface{}{"studentId": "s3", "grade": nil},
		},
	}

	s, err := FromDocument("sec-1", doc, roster)
	require.NoError(t, err)
	assert.Equal(t, "B+", s.Grade("s1"), "falls back to the mirrored grade")
	assert.Equal(t, shared.GradeI, s.Grade("s2"))
	assert.Equal(t, shared.GradeI, s.Grade("s3"))
}

func TestService_SaveCommitsFocus(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	svc := NewService(store)

	s := newQuizSchema(t)
	require.NoError(t, s.SetMark("s1", "Quiz1", 7))
	require.NoError(t, s.EditCriterion("Quiz1", CriterionPatch{Assessment: strPtr("Quiz A")}))

	require.NoError(t, svc.Save(ctx, s))
	_, editing := s.Editing()
	assert.False(t, editing)

	back, err := svc.Load(ctx, "sec-1", roster)
	require.NoError(t, err)
	mark, ok := back.Mark("s1", "Quiz A")
	require.True(t, ok)
	assert.Equal(t, 7.0, mark)
}

func TestService_SaveRejectsInvalidFocus(t *testing.T) {
	store := recordstore.NewMemoryStore()
	s := newQuizSchema(t)
	require.NoError(t, s.EditCriterion("Quiz1", CriterionPatch{Weightage: qtyPtr("")}))

	err := NewService(store).Save(context.Background(), s)
	assert.True(t, shared.IsValidationError(err))
	assert.Empty(t, store.IDs(shared.CollectionStudentsMarks))

	_, editing := s.Editing()
	assert.True(t, editing)
}

func TestService_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemoryStore()
	svc := NewService(store)

	s := newQuizSchema(t)
	require.NoError(t, svc.Save(ctx, s))

	store.FailOn("set", errors.New("quota exceeded"))
	require.NoError(t, s.AddCriterion("Final", "80", "100"))
	err := svc.Save(ctx, s)
	require.Error(t, err)
	assert.True(t, shared.IsStoreFailure(err))
	assert.Equal(t, "quota exceeded", err.Error())

	store.FailOn("set", nil)
	back, err := svc.Load(ctx, "sec-1", roster)
	require.NoError(t, err)
	assert.Len(t, back.Criteria(), 1)
}
