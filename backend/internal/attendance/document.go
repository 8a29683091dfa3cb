package attendance

import (
	"time"

	"cloud.google.com/go/civil"

	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/shared"
)

// Field names of the persisted attendance document
const (
	fieldAssignCourseID = "assignCourseId"
	fieldAttendances    = "attendances"
	fieldDate           = "date"
	fieldRecords        = "records"
)

// ToDocument renders the full ledger document:
//
//	{ assignCourseId, attendances: [ { date: "YYYY-MM-DD", records: { studentId: bool } } ] }
func ToDocument(l *Ledger) recordstore.Document {
	entries := make([]interface{}, 0, len(l.records))
	for _, r := range l.records {
		records := make(map[string]interface{}, len(r.Records))
		for id, present := range r.Records {
			records[id] = present
		}
		entries = append(entries, map[string]interface{}{
			fieldDate:    r.Date.String(),
			fieldRecords: records,
		})
	}
	return recordstore.Document{
		fieldAssignCourseID: l.SectionID,
		fieldAttendances:    entries,
	}
}

// FromDocument validates a stored ledger document. Anything that does not
// match the document shape is rejected as a StoreFailure. Older documents
// may hold the same date twice; the later entry wins, so the loaded ledger
// keeps dates unique.
func FromDocument(sectionID string, doc recordstore.Document) (*Ledger, error) {
	ledger := NewLedger(sectionID)

	if raw, ok := doc[fieldAssignCourseID]; ok && raw != nil {
		id, err := shared.GetString(raw)
		if err != nil {
			return nil, malformed(sectionID, "assignCourseId: %v", err)
		}
		if id != "" && id != sectionID {
			return nil, malformed(sectionID, "assignCourseId %q does not match", id)
		}
	}

	raw, ok := doc[fieldAttendances]
	if !ok || raw == nil {
		return ledger, nil
	}
	entries, err := shared.GetArray(raw)
	if err != nil {
		return nil, malformed(sectionID, "attendances: %v", err)
	}

	for i, item := range entries {
		entry, err := shared.GetMap(item)
		if err != nil {
			return nil, malformed(sectionID, "attendances[%d]: %v", i, err)
		}

		dateStr, err := shared.GetString(entry[fieldDate])
		if err != nil {
			return nil, malformed(sectionID, "attendances[%d].date: %v", i, err)
		}
		date, err := ParseDate(dateStr)
		if err != nil {
			return nil, malformed(sectionID, "attendances[%d].date: %v", i, err)
		}

		presence := map[string]bool{}
		if rawRecords, ok := entry[fieldRecords]; ok && rawRecords != nil {
			records, err := shared.GetMap(rawRecords)
			if err != nil {
				return nil, malformed(sectionID, "attendances[%d].records: %v", i, err)
			}
			for studentID, v := range records {
				present, err := shared.GetBool(v)
				if err != nil {
					return nil, malformed(sectionID, "attendances[%d].records[%s]: %v", i, studentID, err)
				}
				presence[studentID] = present
			}
		}

		ledger.Upsert(date, presence)
	}

	return ledger, nil
}

// ParseDate accepts an ISO-8601 calendar date, or an RFC 3339 timestamp whose
// date part is taken.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err == nil {
		return d, nil
	}
	if t, terr := time.Parse(time.RFC3339, s); terr == nil {
		return civil.DateOf(t.UTC()), nil
	}
	return civil.Date{}, err
}

func malformed(sectionID, format string, args ...interface{}) error {
	return shared.MalformedDocument(shared.CollectionAttendances, sectionID, format, args...)
}
