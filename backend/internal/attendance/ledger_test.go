package attendance

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

var roster = []shared.Student{
	{ID: "s1", Name: "Ayesha"},
	{ID: "s2", Name: "Bilal"},
}

func TestLedger_Upsert(t *testing.T) {
	day := mustDate(t, "2024-01-10")

	t.Run("Second Upsert Replaces", func(t *testing.T) {
		l := NewLedger("sec-1")
		l.Upsert(day, map[string]bool{"s1": true, "s2": true})
		l.Upsert(day, map[string]bool{"s1": false})

		assert.Equal(t, 1, l.Len())
		assert.Equal(t, map[string]bool{"s1": false}, l.RecordFor(day))
	})

	t.Run("Distinct Dates Append", func(t *testing.T) {
		l := NewLedger("sec-1")
		l.Upsert(day, map[string]bool{"s1": true})
		l.Upsert(mustDate(t, "2024-01-11"), map[string]bool{"s1": false})

		assert.Equal(t, 2, l.Len())
		assert.Equal(t, []civil.Date{day, mustDate(t, "2024-01-11")}, l.AllDates())
	})

	t.Run("Caller Map Is Not Shared", func(t *testing.T) {
		l := NewLedger("sec-1")
		in := map[string]bool{"s1": true}
		l.Upsert(day, in)
		in["s1"] = false

		assert.True(t, l.RecordFor(day)["s1"])
	})
}

func TestLedger_RecordFor_Missing(t *testing.T) {
	l := NewLedger("sec-1")
	got := l.RecordFor(mustDate(t, "2024-03-01"))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLedger_Latest(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, ok := NewLedger("sec-1").Latest()
		assert.False(t, ok)
	})

	for _, order := range [][]string{
		{"2024-01-10", "2024-02-01"},
		{"2024-02-01", "2024-01-10"},
	} {
		l := NewLedger("sec-1")
		for _, d := range order {
			l.Upsert(mustDate(t, d), map[string]bool{"s1": d == "2024-02-01"})
		}
		latest, ok := l.Latest()
		require.True(t, ok)
		assert.Equal(t, "2024-02-01", latest.Date.String())
		assert.True(t, latest.Records["s1"])
	}

	t.Run("Chronological Not Lexical", func(t *testing.T) {
		l := NewLedger("sec-1")
		l.Upsert(civil.Date{Year: 2024, Month: 9, Day: 30}, nil)
		l.Upsert(civil.Date{Year: 2024, Month: 10, Day: 1}, nil)
		latest, _ := l.Latest()
		assert.Equal(t, civil.Date{Year: 2024, Month: 10, Day: 1}, latest.Date)
	})
}

func TestIsComplete(t *testing.T) {
	assert.False(t, IsComplete(map[string]bool{"s1": true}, roster))
	assert.True(t, IsComplete(map[string]bool{"s1": true, "s2": false}, roster))
	assert.True(t, IsComplete(map[string]bool{"s1": true, "s2": false, "s9": true}, roster))
	assert.Equal(t, []string{"s2"}, MissingStudents(map[string]bool{"s1": false}, roster))
}

func TestLedger_Summary(t *testing.T) {
	l := NewLedger("sec-1")
	l.Upsert(mustDate(t, "2024-01-10"), map[string]bool{"s1": true, "s2": false})
	l.Upsert(mustDate(t, "2024-01-11"), map[string]bool{"s1": true})

	sum := l.Summary(roster)
	require.Len(t, sum, 2)
	assert.Equal(t, 2, sum[0].Present)
	assert.Equal(t, 100.0, sum[0].Percent)
	assert.Equal(t, 1, sum[1].Absent)
	assert.Equal(t, 1, sum[1].Recorded)
	assert.Equal(t, 0.0, sum[1].Percent)
}

func TestDocument_RoundTrip(t *testing.T) {
	l := NewLedger("sec-1")
	l.Upsert(mustDate(t, "2024-02-01"), map[string]bool{"s1": true, "s2": false})
	l.Upsert(mustDate(t, "2024-01-10"), map[string]bool{"s1": false})

	doc := ToDocument(l)
	assert.Equal(t, "sec-1", doc["assignCourseId"])

	back, err := FromDocument("sec-1", doc)
	require.NoError(t, err)
	assert.Equal(t, l.Records(), back.Records())
}

func TestFromDocument(t *testing.T) {
	t.Run("Duplicate Dates Collapse", func(t *testing.T) {
		doc := recordstore.Document{
			"assignCourseId": "sec-1",
			"attendances": []interface{}{
				map[string]interface{}{"date": "2024-01-10", "records": map[string]interface{}{"s1": true}},
				map[string]interface{}{"date": "2024-01-10", "records": map[string]interface{}{"s1": false}},
			},
		}
		l, err := FromDocument("sec-1", doc)
		require.NoError(t, err)
		assert.Equal(t, 1, l.Len())
		assert.False(t, l.RecordFor(mustDate(t, "2024-01-10"))["s1"])
	})

	t.Run("Timestamp Date", func(t *testing.T) {
		doc := recordstore.Document{
			"attendances": []interface{}{
				map[string]interface{}{"date": "2024-01-10T08:00:00Z", "records": map[string]interface{}{}},
			},
		}
		l, err := FromDocument("sec-1", doc)
		require.NoError(t, err)
		assert.True(t, l.Has(mustDate(t, "2024-01-10")))
	})

	malformedDocs := map[string]recordstore.Document{
		"attendances not array": {"attendances": "nope"},
		"bad date":              {"attendances": []interface{}{map[string]interface{}{"date": "10/01/2024"}}},
		"non bool presence": {"attendances": []interface{}{
			map[string]interface{}{"date": "2024-01-10", "records": map[string]interface{}{"s1": "true"}},
		}},
		"other section": {"assignCourseId": "sec-2"},
	}
	for name, doc := range malformedDocs {
		t.Run(name, func(t *testing.T) {
			_, err := FromDocument("sec-1", doc)
			require.Error(t, err)
			assert.True(t, shared.IsStoreFailure(err))
		})
	}
}
