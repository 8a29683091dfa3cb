// Package attendance keeps the per-section attendance ledger: one record of
// present/absent flags per calendar date.
package attendance

import (
	"sort"

	"cloud.google.com/go/civil"

	"classledger/backend/internal/shared"
)

// Record is the attendance taken on one date. Records maps student id to
// presence.
type Record struct {
	Date    civil.Date      `json:"date"`
	Records map[string]bool `json:"records"`
}

// Ledger holds every attendance record of one course section. Dates are
// unique within a ledger. A Ledger is not safe for concurrent use.
type Ledger struct {
	SectionID string
	records   []Record
}

// NewLedger returns an empty ledger for a section
func NewLedger(sectionID string) *Ledger {
	return &Ledger{SectionID: sectionID}
}

// Upsert inserts a record for date, or replaces the presence map of the
// existing record for that date. It never appends a second record for a date
// and it does not check the map against a roster; see IsComplete.
func (l *Ledger) Upsert(date civil.Date, presence map[string]bool) {
	records := copyPresence(presence)
	for i := range l.records {
		if l.records[i].Date == date {
			l.records[i].Records = records
			return
		}
	}
	l.records = append(l.records, Record{Date: date, Records: records})
}

// RecordFor returns a copy of the presence map for date, or an empty map
func (l *Ledger) RecordFor(date civil.Date) map[string]bool {
	for _, r := range l.records {
		if r.Date == date {
			return copyPresence(r.Records)
		}
	}
	return map[string]bool{}
}

// Has reports whether a record exists for date
func (l *Ledger) Has(date civil.Date) bool {
	for _, r := range l.records {
		if r.Date == date {
			return true
		}
	}
	return false
}

// Latest returns the record with the chronologically greatest date
func (l *Ledger) Latest() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	latest := l.records[0]
	for _, r := range l.records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return Record{Date: latest.Date, Records: copyPresence(latest.Records)}, true
}

// AllDates returns the recorded dates in ledger order
func (l *Ledger) AllDates() []civil.Date {
	dates := make([]civil.Date, 0, len(l.records))
	for _, r := range l.records {
		dates = append(dates, r.Date)
	}
	return dates
}

// SortedDates returns the recorded dates oldest first
func (l *Ledger) SortedDates() []civil.Date {
	dates := l.AllDates()
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Records returns a copy of every record in ledger order
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, Record{Date: r.Date, Records: copyPresence(r.Records)})
	}
	return out
}

// Len is the number of recorded dates
func (l *Ledger) Len() int {
	return len(l.records)
}

// Clone returns a deep copy
func (l *Ledger) Clone() *Ledger {
	return &Ledger{SectionID: l.SectionID, records: l.Records()}
}

// IsComplete reports whether presence holds an explicit flag for every
// student on the roster. Callers gate Upsert on it.
func IsComplete(presence map[string]bool, roster []shared.Student) bool {
	for _, s := range roster {
		if _, ok := presence[s.ID]; !ok {
			return false
		}
	}
	return true
}

// MissingStudents lists roster ids without a presence flag, in roster order
func MissingStudents(presence map[string]bool, roster []shared.Student) []string {
	var missing []string
	for _, s := range roster {
		if _, ok := presence[s.ID]; !ok {
			missing = append(missing, s.ID)
		}
	}
	return missing
}

// StudentSummary counts one student's attendance across the ledger
type StudentSummary struct {
	StudentID string  `json:"student_id"`
	Name      string  `json:"name"`
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	Recorded  int     `json:"recorded"`
	Percent   float64 `json:"percent"`
}

// Summary tallies every roster student. Dates on which a student has no flag
// count toward neither present nor absent.
func (l *Ledger) Summary(roster []shared.Student) []StudentSummary {
	out := make([]StudentSummary, 0, len(roster))
	for _, s := range roster {
		sum := StudentSummary{StudentID: s.ID, Name: s.Name}
		for _, r := range l.records {
			present, ok := r.Records[s.ID]
			if !ok {
				continue
			}
			sum.Recorded++
			if present {
				sum.Present++
			} else {
				sum.Absent++
			}
		}
		if sum.Recorded > 0 {
			sum.Percent = float64(sum.Present) * 100 / float64(sum.Recorded)
		}
		out = append(out, sum)
	}
	return out
}

func copyPresence(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
