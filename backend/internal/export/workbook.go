// Package export renders a section's attendance ledger and grading schema as
// an Excel workbook.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"classledger/backend/internal/attendance"
	"classledger/backend/internal/grading"
	"classledger/backend/internal/shared"
)

// Sheet names
const (
	SheetAttendance = "Attendance"
	SheetMarks      = "Marks"
)

// ContentType of an .xlsx download
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds the two-sheet workbook. Either ledger or schema may be nil,
// which leaves its sheet with headers only. The caller must Close the file.
func Workbook(section shared.CourseSection, roster []shared.Student, ledger *attendance.Ledger, schema *grading.Schema) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetAttendance); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetMarks); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	if ledger == nil {
		ledger = attendance.NewLedger(section.ID)
	}
	if schema == nil {
		schema = grading.NewSchema(section.ID)
	}

	if err := writeAttendance(f, bold, roster, ledger); err != nil {
		f.Close()
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}
	if err := writeMarks(f, bold, roster, schema); err != nil {
		f.Close()
		return nil, fmt.Errorf("marks sheet: %w", err)
	}
	return f, nil
}

// Render builds the workbook and returns it as .xlsx bytes
func Render(section shared.CourseSection, roster []shared.Student, ledger *attendance.Ledger, schema *grading.Schema) ([]byte, error) {
	f, err := Workbook(section, roster, ledger, schema)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename suggests a download name for a section's workbook
func Filename(section shared.CourseSection) string {
	name := strings.TrimSpace(section.CourseName + " " + section.ClassName)
	if name == "" {
		name = section.ID
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return name + ".xlsx"
}

func writeAttendance(f *excelize.File, bold int, roster []shared.Student, ledger *attendance.Ledger) error {
	dates := ledger.SortedDates()

	header := []interface{}{"Student ID", "Name"}
	for _, d := range dates {
		header = append(header, d.String())
	}
	header = append(header, "Present", "Absent", "Attendance %")
	if err := writeRow(f, SheetAttendance, 1, header); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetAttendance, 1, 1, bold); err != nil {
		return err
	}

	summary := ledger.Summary(roster)
	for i, st := range roster {
		row := []interface{}{st.ID, st.Name}
		for _, d := range dates {
			present, ok := ledger.RecordFor(d)[st.ID]
			switch {
			case !ok:
				row = append(row, "")
			case present:
				row = append(row, "P")
			default:
				row = append(row, "A")
			}
		}
		s := summary[i]
		row = append(row, s.Present, s.Absent, round2(s.Percent))
		if err := writeRow(f, SheetAttendance, i+2, row); err != nil {
			return err
		}
	}

	return f.SetColWidth(SheetAttendance, "B", "B", 24)
}

func writeMarks(f *excelize.File, bold int, roster []shared.Student, schema *grading.Schema) error {
	criteria := schema.Criteria()

	header := []interface{}{"Student ID", "Name"}
	for _, c := range criteria {
		header = append(header, fmt.Sprintf("%s (%s%% of %s)", c.Assessment, c.Weightage, c.TotalMarks))
	}
	header = append(header, "Weighted Total", "Grade")
	if err := writeRow(f, SheetMarks, 1, header); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetMarks, 1, 1, bold); err != nil {
		return err
	}

	names := make(map[string]string, len(roster))
	for _, st := range roster {
		names[st.ID] = st.Name
	}

	for i, id := range schema.Students() {
		row := []interface{}{id, names[id]}
		for _, c := range criteria {
			if mark, ok := schema.Mark(id, c.Assessment); ok {
				row = append(row, mark)
			} else {
				row = append(row, "")
			}
		}
		if total, ok := schema.WeightedTotal(id); ok {
			row = append(row, round2(total))
		} else {
			row = append(row, "")
		}
		row = append(row, schema.Grade(id))
		if err := writeRow(f, SheetMarks, i+2, row); err != nil {
			return err
		}
	}

	return f.SetColWidth(SheetMarks, "B", "B", 24)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
