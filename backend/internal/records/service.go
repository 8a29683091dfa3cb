// Package records exposes the attendance ledger and the grading engine as a
// gRPC service.
package records

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"classledger/backend/internal/attendance"
	"classledger/backend/internal/export"
	"classledger/backend/internal/grading"
	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/roster"
	"classledger/backend/internal/session"
	"classledger/backend/internal/shared"
)

// RecordsService implements RecordsServer
type RecordsService struct {
	attendance *attendance.Service
	grading    *grading.Service
	directory  roster.Directory
	sessions   *session.Registry
}

// NewRecordsService creates a new RecordsService instance
func NewRecordsService(store recordstore.Store, directory roster.Directory, sessions *session.Registry) *RecordsService {
	return &RecordsService{
		attendance: attendance.NewService(store),
		grading:    grading.NewService(store),
		directory:  directory,
		sessions:   sessions,
	}
}

// toStatus maps engine errors onto gRPC codes. Store failures keep their
// message unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case roster.IsSectionNotFound(err), errors.Is(err, session.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func requireSectionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return status.Error(codes.InvalidArgument, "assign_course_id is required")
	}
	return nil
}

// sectionRoster resolves a section and its enrolled students
func (s *RecordsService) sectionRoster(ctx context.Context, assignCourseID string) (shared.CourseSection, []shared.Student, error) {
	if err := requireSectionID(assignCourseID); err != nil {
		return shared.CourseSection{}, nil, err
	}
	section, err := s.directory.Section(ctx, assignCourseID)
	if err != nil {
		return shared.CourseSection{}, nil, toStatus(err)
	}
	students, err := s.directory.Enrolled(ctx, assignCourseID)
	if err != nil {
		return shared.CourseSection{}, nil, toStatus(err)
	}
	return section, students, nil
}

// ============================================================================
// Attendance
// ============================================================================

// SaveAttendance records one day of attendance. Every enrolled student must
// be marked present or absent.
func (s *RecordsService) SaveAttendance(ctx context.Context, req *SaveAttendanceRequest) (*SaveAttendanceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "date %q is not a calendar date", req.Date)
	}

	_, students, err := s.sectionRoster(ctx, req.AssignCourseID)
	if err != nil {
		return nil, err
	}

	if missing := attendance.MissingStudents(req.Records, students); len(missing) > 0 {
		return nil, status.Errorf(codes.FailedPrecondition,
			"attendance not marked for %d student(s): %s", len(missing), strings.Join(missing, ", "))
	}

	ledger, err := s.attendance.Save(ctx, req.AssignCourseID, date, req.Records)
	if err != nil {
		return nil, toStatus(err)
	}

	return &SaveAttendanceResponse{
		Success: true,
		Message: fmt.Sprintf("Attendance for %s saved", date),
		Dates:   dateStrings(ledger),
	}, nil
}

// GetAttendance returns the attendance of one date with the current roster
func (s *RecordsService) GetAttendance(ctx context.Context, req *AttendanceRequest) (*AttendanceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "date %q is not a calendar date", req.Date)
	}

	_, students, err := s.sectionRoster(ctx, req.AssignCourseID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.attendance.Load(ctx, req.AssignCourseID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &AttendanceResponse{
		AssignCourseID: req.AssignCourseID,
		Date:           date.String(),
		Found:          ledger.Has(date),
		Records:        ledger.RecordFor(date),
		Students:       students,
	}, nil
}

// GetLatestAttendance returns the most recent day of attendance
func (s *RecordsService) GetLatestAttendance(ctx context.Context, req *AttendanceRequest) (*AttendanceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	_, students, err := s.sectionRoster(ctx, req.AssignCourseID)
	if err != nil {
		return nil, err
	}

	latest, ok, err := s.attendance.Latest(ctx, req.AssignCourseID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &AttendanceResponse{
		AssignCourseID: req.AssignCourseID,
		Found:          ok,
		Records:        map[string]bool{},
		Students:       students,
	}
	if ok {
		resp.Date = latest.Date.String()
		resp.Records = latest.Records
	}
	return resp, nil
}

// ListAttendanceDates lists the recorded dates, oldest first
func (s *RecordsService) ListAttendanceDates(ctx context.Context, req *AttendanceRequest) (*DatesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if err := requireSectionID(req.AssignCourseID); err != nil {
		return nil, err
	}

	dates, err := s.attendance.Dates(ctx, req.AssignCourseID)
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return &DatesResponse{AssignCourseID: req.AssignCourseID, Dates: out}, nil
}

func dateStrings(l *attendance.Ledger) []string {
	dates := l.SortedDates()
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}

// ============================================================================
// Grading Sessions
// ============================================================================

// OpenGrading loads a section's grading document into a new edit session
func (s *RecordsService) OpenGrading(ctx context.Context, req *SectionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	_, students, err := s.sectionRoster(ctx, req.AssignCourseID)
	if err != nil {
		return nil, err
	}

	schema, err := s.grading.Load(ctx, req.AssignCourseID, students)
	if err != nil {
		return nil, toStatus(err)
	}

	sess := s.sessions.Open(schema, students)
	return s.withSession(sess.ID, nil)
}

// withSession runs op on a session's schema and returns the resulting view.
// op works on a copy; the session only sees the changes when op succeeds.
func (s *RecordsService) withSession(sessionID string, op func(schema *grading.Schema, students []shared.Student) error) (*GradingView, error) {
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, toStatus(err)
	}

	var view *GradingView
	err = sess.Do(func(schema *grading.Schema, students []shared.Student) error {
		if op != nil {
			next := schema.Clone()
			if err := op(next, students); err != nil {
				return err
			}
			*schema = *next
		}
		view = buildView(sess.ID, schema, students)
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return view, nil
}

func (s *RecordsService) AddCriterion(ctx context.Context, req *AddCriterionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.AddCriterion(req.Assessment, req.Weightage, req.TotalMarks)
	})
}

func (s *RecordsService) EditCriterion(ctx context.Context, req *EditCriterionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}

	patch := grading.CriterionPatch{Assessment: req.NewAssessment}
	if req.Weightage != nil {
		q, err := grading.QuantityOf(req.Weightage)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "weightage: %v", err)
		}
		patch.Weightage = &q
	}
	if req.TotalMarks != nil {
		q, err := grading.QuantityOf(req.TotalMarks)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "totalMarks: %v", err)
		}
		patch.TotalMarks = &q
	}

	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.EditCriterion(req.Assessment, patch)
	})
}

func (s *RecordsService) DeleteCriterion(ctx context.Context, req *CriterionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.DeleteCriterion(req.Assessment)
	})
}

func (s *RecordsService) StartEdit(ctx context.Context, req *CriterionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.StartEdit(req.Assessment)
	})
}

func (s *RecordsService) SaveEdit(ctx context.Context, req *SessionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.SaveEdit()
	})
}

func (s *RecordsService) CancelEdit(ctx context.Context, req *SessionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		schema.CancelEdit()
		return nil
	})
}

// SetMarks applies every mark of the request or none of them
func (s *RecordsService) SetMarks(ctx context.Context, req *SetMarksRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		ids := make([]string, 0, len(req.Marks))
		for id := range req.Marks {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, studentID := range ids {
			if err := schema.SetMark(studentID, req.Assessment, req.Marks[studentID]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *RecordsService) AddUpMarks(ctx context.Context, req *AddUpMarksRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.AddUpMarks(req.Assessment, req.Deltas)
	})
}

func (s *RecordsService) SetGrade(ctx context.Context, req *SetGradeRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, func(schema *grading.Schema, _ []shared.Student) error {
		return schema.SetGrade(req.StudentID, req.Grade)
	})
}

func (s *RecordsService) GradingStatus(ctx context.Context, req *SessionRequest) (*GradingView, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	return s.withSession(req.SessionID, nil)
}

// SaveGrading persists the session's schema. It refuses while a criterion
// has a blank field or a mark is missing, unless Force is set.
func (s *RecordsService) SaveGrading(ctx context.Context, req *SaveGradingRequest) (*SaveGradingResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, toStatus(err)
	}

	var view *GradingView
	err = sess.Do(func(schema *grading.Schema, students []shared.Student) error {
		if !req.Force {
			if !schema.AllCriteriaFilled() {
				return status.Error(codes.FailedPrecondition, "every criterion needs an assessment, a weightage and total marks")
			}
			if !schema.AllMarksEntered(students) {
				return status.Error(codes.FailedPrecondition, "marks are missing for some students")
			}
		}
		if err := s.grading.Save(ctx, schema); err != nil {
			return err
		}
		view = buildView(sess.ID, schema, students)
		return nil
	})
	if err != nil {
		log.Printf("WARN: [Records] grading save for session %s refused: %v", req.SessionID, err)
		return nil, toStatus(err)
	}

	msg := "Marks saved"
	if len(view.Warnings) > 0 {
		msg = fmt.Sprintf("Marks saved with %d warning(s)", len(view.Warnings))
	}
	return &SaveGradingResponse{Success: true, Message: msg, View: view}, nil
}

// CloseGrading discards the session. Unsaved edits are lost.
func (s *RecordsService) CloseGrading(ctx context.Context, req *SessionRequest) (*CloseGradingResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if !s.sessions.Close(req.SessionID) {
		return nil, status.Error(codes.NotFound, session.ErrSessionNotFound.Error())
	}
	return &CloseGradingResponse{Success: true, Message: "Grading session closed"}, nil
}

func buildView(sessionID string, schema *grading.Schema, students []shared.Student) *GradingView {
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.Name
	}

	criteria := schema.Criteria()
	rows := make([]StudentMarks, 0, len(schema.Students()))
	for _, id := range schema.Students() {
		row := StudentMarks{
			StudentID: id,
			Name:      names[id],
			Marks:     schema.Marks(id),
			Weighted:  map[string]float64{},
			Grade:     schema.Grade(id),
		}
		for _, c := range criteria {
			if v, ok := schema.WeightedContribution(id, c.Assessment); ok {
				row.Weighted[c.Assessment] = v
			}
		}
		if total, ok := schema.WeightedTotal(id); ok {
			row.WeightedTotal = &total
		}
		rows = append(rows, row)
	}

	editing, _ := schema.Editing()
	warnings := schema.Warnings(students)
	if warnings == nil {
		warnings = []shared.IncompleteInputWarning{}
	}

	return &GradingView{
		SessionID:         sessionID,
		AssignCourseID:    schema.SectionID,
		Criteria:          criteria,
		Students:          rows,
		Editing:           editing,
		TotalWeightage:    schema.TotalWeightage(),
		WeightageBalanced: schema.IsWeightageBalanced(),
		AllCriteriaFilled: schema.AllCriteriaFilled(),
		AllMarksEntered:   schema.AllMarksEntered(students),
		Warnings:          warnings,
	}
}

// ============================================================================
// Sections
// ============================================================================

// GetSection returns a section with its roster and attendance summary
func (s *RecordsService) GetSection(ctx context.Context, req *SectionRequest) (*SectionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	section, students, err := s.sectionRoster(ctx, req.AssignCourseID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.attendance.Load(ctx, req.AssignCourseID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &SectionResponse{
		Section:  section,
		Students: students,
		Summary:  ledger.Summary(students),
		Dates:    dateStrings(ledger),
	}, nil
}

// ListSections lists the sections an instructor teaches
func (s *RecordsService) ListSections(ctx context.Context, req *ListSectionsRequest) (*ListSectionsResponse, error) {
	if req == nil || strings.TrimSpace(req.InstructorID) == "" {
		return nil, status.Error(codes.InvalidArgument, "instructor_id is required")
	}
	sections, err := s.directory.SectionsTaught(ctx, req.InstructorID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListSectionsResponse{Sections: sections}, nil
}

// ExportSection renders the saved attendance and grading of a section as a
// workbook. Unsaved session edits are not included.
func (s *RecordsService) ExportSection(ctx context.Context, req *SectionRequest) (*ExportResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	section, students, err := s.sectionRoster(ctx, req.AssignCourseID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.attendance.Load(ctx, req.AssignCourseID)
	if err != nil {
		return nil, toStatus(err)
	}
	schema, err := s.grading.Load(ctx, req.AssignCourseID, students)
	if err != nil {
		return nil, toStatus(err)
	}

	data, err := export.Render(section, students, ledger, schema)
	if err != nil {
		log.Printf("ERROR: [Records] export of %s failed: %v", req.AssignCourseID, err)
		return nil, status.Errorf(codes.Internal, "failed to build workbook: %v", err)
	}
	log.Printf("INFO: [Records] exported %s (%d bytes)", req.AssignCourseID, len(data))

	return &ExportResponse{
		Filename:    export.Filename(section),
		ContentType: export.ContentType,
		Data:        data,
	}, nil
}
