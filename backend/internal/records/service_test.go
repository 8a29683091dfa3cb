package records

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"classledger/backend/internal/export"
	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/roster"
	"classledger/backend/internal/session"
	"classledger/backend/internal/shared"
)

const bufSize = 1024 * 1024

var testFixture = &roster.Fixture{
	Courses:  []roster.NamedEntry{{ID: "ma201", Name: "Linear Algebra"}},
	Classes:  []roster.NamedEntry{{ID: "bscs-1a", Name: "BSCS 1A"}},
	Sections: []roster.FixtureSection{{ID: "sec-1", CourseID: "ma201", ClassID: "bscs-1a", InstructorID: "inst-1"}},
	Students: []roster.FixtureStudent{
		{ID: "s1", Name: "Ayesha", CurrentCourses: []string{"sec-1"}},
		{ID: "s2", Name: "Bilal", CurrentCourses: []string{"sec-1"}},
	},
}

type testEnv struct {
	client RecordsClient
	store  *recordstore.MemoryStore
}

func setupRecordsTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := recordstore.NewMemoryStore()
	svc := NewRecordsService(store, roster.NewMemoryDirectory(testFixture), session.NewRegistry(time.Hour))

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	RegisterRecordsServer(s, svc)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testEnv{client: NewRecordsClient(conn), store: store}
}

func assertCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), err.Error())
}

func TestRecords_Attendance(t *testing.T) {
	env := setupRecordsTestEnv(t)
	ctx := context.Background()

	t.Run("Incomplete Is Refused", func(t *testing.T) {
		_, err := env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
			AssignCourseID: "sec-1", Date: "2024-01-10", Records: map[string]bool{"s1": true},
		})
		assertCode(t, err, codes.FailedPrecondition)
		assert.Contains(t, err.Error(), "s2")
		assert.Empty(t, env.store.IDs(shared.CollectionAttendances))
	})

	t.Run("Save And Overwrite", func(t *testing.T) {
		resp, err := env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
			AssignCourseID: "sec-1", Date: "2024-01-10", Records: map[string]bool{"s1": true, "s2": true},
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, []string{"2024-01-10"}, resp.Dates)

		resp, err = env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
			AssignCourseID: "sec-1", Date: "2024-01-10", Records: map[string]bool{"s1": false, "s2": true},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-10"}, resp.Dates)

		got, err := env.client.GetAttendance(ctx, &AttendanceRequest{AssignCourseID: "sec-1", Date: "2024-01-10"})
		require.NoError(t, err)
		assert.True(t, got.Found)
		assert.Equal(t, map[string]bool{"s1": false, "s2": true}, got.Records)
		assert.Len(t, got.Students, 2)
	})

	t.Run("Latest And Dates", func(t *testing.T) {
		_, err := env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
			AssignCourseID: "sec-1", Date: "2024-02-01", Records: map[string]bool{"s1": true, "s2": false},
		})
		require.NoError(t, err)

		latest, err := env.client.GetLatestAttendance(ctx, &AttendanceRequest{AssignCourseID: "sec-1"})
		require.NoError(t, err)
		assert.Equal(t, "2024-02-01", latest.Date)

		dates, err := env.client.ListAttendanceDates(ctx, &AttendanceRequest{AssignCourseID: "sec-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-10", "2024-02-01"}, dates.Dates)
	})

	t.Run("Unrecorded Date", func(t *testing.T) {
		got, err := env.client.GetAttendance(ctx, &AttendanceRequest{AssignCourseID: "sec-1", Date: "2024-03-01"})
		require.NoError(t, err)
		assert.False(t, got.Found)
		assert.Empty(t, got.Records)
	})

	t.Run("Bad Requests", func(t *testing.T) {
		_, err := env.client.SaveAttendance(ctx, &SaveAttendanceRequest{AssignCourseID: "sec-1", Date: "10/01/2024"})
		assertCode(t, err, codes.InvalidArgument)

		_, err = env.client.SaveAttendance(ctx, &SaveAttendanceRequest{AssignCourseID: "sec-9", Date: "2024-01-10"})
		assertCode(t, err, codes.NotFound)

		_, err = env.client.ListAttendanceDates(ctx, &AttendanceRequest{})
		assertCode(t, err, codes.InvalidArgument)
	})

	t.Run("Store Failure Keeps Message", func(t *testing.T) {
		env.store.FailOn("set", errors.New("permission denied"))
		defer env.store.FailOn("set", nil)

		_, err := env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
			AssignCourseID: "sec-1", Date: "2024-03-01", Records: map[string]bool{"s1": true, "s2": true},
		})
		assertCode(t, err, codes.Internal)
		assert.Equal(t, "permission denied", status.Convert(err).Message())
	})
}

func TestRecords_GradingSession(t *testing.T) {
	env := setupRecordsTestEnv(t)
	ctx := context.Background()

	view, err := env.client.OpenGrading(ctx, &SectionRequest{AssignCourseID: "sec-1"})
	require.NoError(t, err)
	sid := view.SessionID
	require.NotEmpty(t, sid)
	require.Len(t, view.Students, 2)
	assert.Equal(t, shared.GradeI, view.Students[0].Grade)
	assert.Empty(t, view.Criteria)

	view, err = env.client.AddCriterion(ctx, &AddCriterionRequest{SessionID: sid, Assessment: "Quiz1", Weightage: "20", TotalMarks: 10})
	require.NoError(t, err)
	require.Len(t, view.Criteria, 1)
	assert.False(t, view.WeightageBalanced)

	_, err = env.client.AddCriterion(ctx, &AddCriterionRequest{SessionID: sid, Assessment: "Lab", Weightage: "", TotalMarks: "10"})
	assertCode(t, err, codes.InvalidArgument)

	view, err = env.client.SetMarks(ctx, &SetMarksRequest{SessionID: sid, Assessment: "Quiz1", Marks: map[string]interface{}{"s1": 7}})
	require.NoError(t, err)
	require.NotNil(t, view.Students[0].WeightedTotal)
	assert.InDelta(t, 14.0, *view.Students[0].WeightedTotal, 1e-9)
	assert.Nil(t, view.Students[1].WeightedTotal)
	assert.False(t, view.AllMarksEntered)

	t.Run("Incomplete Save Refused", func(t *testing.T) {
		_, err := env.client.SaveGrading(ctx, &SaveGradingRequest{SessionID: sid})
		assertCode(t, err, codes.FailedPrecondition)
		assert.Empty(t, env.store.IDs(shared.CollectionStudentsMarks))
	})

	view, err = env.client.AddUpMarks(ctx, &AddUpMarksRequest{SessionID: sid, Assessment: "Quiz1", Deltas: map[string]float64{"s1": 3, "s2": 5}})
	require.NoError(t, err)
	assert.Equal(t, 10.0, view.Students[0].Marks["Quiz1"])
	assert.True(t, view.AllMarksEntered)

	view, err = env.client.SetGrade(ctx, &SetGradeRequest{SessionID: sid, StudentID: "s1", Grade: "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", view.Students[0].Grade)

	_, err = env.client.SetGrade(ctx, &SetGradeRequest{SessionID: sid, StudentID: "s1", Grade: "Z"})
	assertCode(t, err, codes.InvalidArgument)

	t.Run("Rename Then Cancel", func(t *testing.T) {
		name := "Quiz A"
		view, err := env.client.EditCriterion(ctx, &EditCriterionRequest{SessionID: sid, Assessment: "Quiz1", NewAssessment: &name})
		require.NoError(t, err)
		assert.Equal(t, "Quiz A", view.Editing)

		view, err = env.client.CancelEdit(ctx, &SessionRequest{SessionID: sid})
		require.NoError(t, err)
		assert.Empty(t, view.Editing)
		assert.Equal(t, "Quiz1", view.Criteria[0].Assessment)
	})

	t.Run("Save And Reopen", func(t *testing.T) {
		resp, err := env.client.SaveGrading(ctx, &SaveGradingRequest{SessionID: sid})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.View.Warnings, "weightage is not 100")

		reopened, err := env.client.OpenGrading(ctx, &SectionRequest{AssignCourseID: "sec-1"})
		require.NoError(t, err)
		assert.NotEqual(t, sid, reopened.SessionID)
		assert.Equal(t, "Quiz1", reopened.Criteria[0].Assessment)
		assert.Equal(t, 10.0, reopened.Students[0].Marks["Quiz1"])
		assert.Equal(t, 5.0, reopened.Students[1].Marks["Quiz1"])
		assert.Equal(t, "A", reopened.Students[0].Grade)
	})

	t.Run("Close", func(t *testing.T) {
		closed, err := env.client.CloseGrading(ctx, &SessionRequest{SessionID: sid})
		require.NoError(t, err)
		assert.True(t, closed.Success)

		_, err = env.client.GradingStatus(ctx, &SessionRequest{SessionID: sid})
		assertCode(t, err, codes.NotFound)
		_, err = env.client.CloseGrading(ctx, &SessionRequest{SessionID: sid})
		assertCode(t, err, codes.NotFound)
	})
}

func TestRecords_GradingForceAndDelete(t *testing.T) {
	env := setupRecordsTestEnv(t)
	ctx := context.Background()

	view, err := env.client.OpenGrading(ctx, &SectionRequest{AssignCourseID: "sec-1"})
	require.NoError(t, err)
	sid := view.SessionID

	for _, c := range []AddCriterionRequest{
		{SessionID: sid, Assessment: "Quiz1", Weightage: 40, TotalMarks: 10},
		{SessionID: sid, Assessment: "Final", Weightage: 60, TotalMarks: 100},
	} {
		c := c
		_, err := env.client.AddCriterion(ctx, &c)
		require.NoError(t, err)
	}
	_, err = env.client.SetMarks(ctx, &SetMarksRequest{SessionID: sid, Assessment: "Quiz1", Marks: map[string]interface{}{"s1": 8, "s2": "9"}})
	require.NoError(t, err)

	view, err = env.client.DeleteCriterion(ctx, &CriterionRequest{SessionID: sid, Assessment: "Quiz1"})
	require.NoError(t, err)
	assert.Len(t, view.Criteria, 1)
	assert.NotContains(t, view.Students[0].Marks, "Quiz1")

	_, err = env.client.StartEdit(ctx, &CriterionRequest{SessionID: sid, Assessment: "Final"})
	require.NoError(t, err)
	view, err = env.client.EditCriterion(ctx, &EditCriterionRequest{SessionID: sid, Assessment: "Final", Weightage: "100"})
	require.NoError(t, err)
	view, err = env.client.SaveEdit(ctx, &SessionRequest{SessionID: sid})
	require.NoError(t, err)
	assert.True(t, view.WeightageBalanced)

	resp, err := env.client.SaveGrading(ctx, &SaveGradingRequest{SessionID: sid, Force: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"sec-1"}, env.store.IDs(shared.CollectionStudentsMarks))
}

func TestRecords_Sections(t *testing.T) {
	env := setupRecordsTestEnv(t)
	ctx := context.Background()

	list, err := env.client.ListSections(ctx, &ListSectionsRequest{InstructorID: "inst-1"})
	require.NoError(t, err)
	require.Len(t, list.Sections, 1)
	assert.Equal(t, "Linear Algebra", list.Sections[0].CourseName)

	_, err = env.client.ListSections(ctx, &ListSectionsRequest{})
	assertCode(t, err, codes.InvalidArgument)

	_, err = env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
		AssignCourseID: "sec-1", Date: "2024-01-10", Records: map[string]bool{"s1": true, "s2": false},
	})
	require.NoError(t, err)

	sec, err := env.client.GetSection(ctx, &SectionRequest{AssignCourseID: "sec-1"})
	require.NoError(t, err)
	assert.Equal(t, "BSCS 1A", sec.Section.ClassName)
	require.Len(t, sec.Summary, 2)
	assert.Equal(t, 1, sec.Summary[0].Present)
	assert.Equal(t, 1, sec.Summary[1].Absent)

	_, err = env.client.GetSection(ctx, &SectionRequest{AssignCourseID: "sec-9"})
	assertCode(t, err, codes.NotFound)
}

func TestRecords_Export(t *testing.T) {
	env := setupRecordsTestEnv(t)
	ctx := context.Background()

	_, err := env.client.SaveAttendance(ctx, &SaveAttendanceRequest{
		AssignCourseID: "sec-1", Date: "2024-01-10", Records: map[string]bool{"s1": true, "s2": false},
	})
	require.NoError(t, err)

	resp, err := env.client.ExportSection(ctx, &SectionRequest{AssignCourseID: "sec-1"})
	require.NoError(t, err)
	assert.Equal(t, "Linear_Algebra_BSCS_1A.xlsx", resp.Filename)
	assert.Equal(t, export.ContentType, resp.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(resp.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetAttendance)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
