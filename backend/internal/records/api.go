package records

import (
	"context"

	"google.golang.org/grpc"

	"classledger/backend/internal/attendance"
	"classledger/backend/internal/grading"
	"classledger/backend/internal/shared"
)

// ServiceName is the full gRPC service name
const ServiceName = "classledger.records.Records"

// ============================================================================
// Messages
// ============================================================================

type SectionRequest struct {
	AssignCourseID string `json:"assign_course_id"`
}

type ListSectionsRequest struct {
	InstructorID string `json:"instructor_id"`
}

type ListSectionsResponse struct {
	Sections []shared.CourseSection `json:"sections"`
}

type SectionResponse struct {
	Section  shared.CourseSection        `json:"section"`
	Students []shared.Student            `json:"students"`
	Summary  []attendance.StudentSummary `json:"attendance_summary"`
	Dates    []string                    `json:"attendance_dates"`
}

type SaveAttendanceRequest struct {
	AssignCourseID string          `json:"assign_course_id"`
	Date           string          `json:"date"`
	Records        map[string]bool `json:"records"`
}

type SaveAttendanceResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Dates   []string `json:"dates"`
}

type AttendanceRequest struct {
	AssignCourseID string `json:"assign_course_id"`
	Date           string `json:"date,omitempty"`
}

// AttendanceResponse carries one day of attendance with the roster it is
// marked against. Found is false when nothing was recorded for the date.
type AttendanceResponse struct {
	AssignCourseID string           `json:"assign_course_id"`
	Date           string           `json:"date,omitempty"`
	Found          bool             `json:"found"`
	Records        map[string]bool  `json:"records"`
	Students       []shared.Student `json:"students"`
}

type DatesResponse struct {
	AssignCourseID string   `json:"assign_course_id"`
	Dates          []string `json:"dates"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// AddCriterionRequest takes weightage and total marks as text or numbers
type AddCriterionRequest struct {
	SessionID  string      `json:"session_id"`
	Assessment string      `json:"assessment"`
	Weightage  interface{} `json:"weightage"`
	TotalMarks interface{} `json:"totalMarks"`
}

// EditCriterionRequest changes the criterion currently named Assessment.
// Nil fields are left alone.
type EditCriterionRequest struct {
	SessionID     string      `json:"session_id"`
	Assessment    string      `json:"assessment"`
	NewAssessment *string     `json:"new_assessment,omitempty"`
	Weightage     interface{} `json:"weightage,omitempty"`
	TotalMarks    interface{} `json:"totalMarks,omitempty"`
}

type CriterionRequest struct {
	SessionID  string `json:"session_id"`
	Assessment string `json:"assessment"`
}

// SetMarksRequest overwrites raw marks. A blank or non-numeric value removes
// the student's mark.
type SetMarksRequest struct {
	SessionID  string                 `json:"session_id"`
	Assessment string                 `json:"assessment"`
	Marks      map[string]interface{} `json:"marks"`
}

type AddUpMarksRequest struct {
	SessionID  string             `json:"session_id"`
	Assessment string             `json:"assessment"`
	Deltas     map[string]float64 `json:"deltas"`
}

type SetGradeRequest struct {
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	Grade     string `json:"grade"`
}

type SaveGradingRequest struct {
	SessionID string `json:"session_id"`
	Force     bool   `json:"force"`
}

// StudentMarks is one row of the grading table
type StudentMarks struct {
	StudentID     string             `json:"student_id"`
	Name          string             `json:"name"`
	Marks         map[string]float64 `json:"marks"`
	Weighted      map[string]float64 `json:"weighted"`
	WeightedTotal *float64           `json:"weighted_total"`
	Grade         string             `json:"grade"`
}

// GradingView is the state of a grading session after an operation
type GradingView struct {
	SessionID         string                          `json:"session_id"`
	AssignCourseID    string                          `json:"assign_course_id"`
	Criteria          []grading.Criterion             `json:"criteria"`
	Students          []StudentMarks                  `json:"students"`
	Editing           string                          `json:"editing,omitempty"`
	TotalWeightage    float64                         `json:"total_weightage"`
	WeightageBalanced bool                            `json:"weightage_balanced"`
	AllCriteriaFilled bool                            `json:"all_criteria_filled"`
	AllMarksEntered   bool                            `json:"all_marks_entered"`
	Warnings          []shared.IncompleteInputWarning `json:"warnings"`
}

type SaveGradingResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	View    *GradingView `json:"grading"`
}

type CloseGradingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ExportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ============================================================================
// Server
// ============================================================================

// RecordsServer is the server API for the records service
type RecordsServer interface {
	SaveAttendance(context.Context, *SaveAttendanceRequest) (*SaveAttendanceResponse, error)
	GetAttendance(context.Context, *AttendanceRequest) (*AttendanceResponse, error)
	GetLatestAttendance(context.Context, *AttendanceRequest) (*AttendanceResponse, error)
	ListAttendanceDates(context.Context, *AttendanceRequest) (*DatesResponse, error)

	OpenGrading(context.Context, *SectionRequest) (*GradingView, error)
	AddCriterion(context.Context, *AddCriterionRequest) (*GradingView, error)
	EditCriterion(context.Context, *EditCriterionRequest) (*GradingView, error)
	DeleteCriterion(context.Context, *CriterionRequest) (*GradingView, error)
	StartEdit(context.Context, *CriterionRequest) (*GradingView, error)
	SaveEdit(context.Context, *SessionRequest) (*GradingView, error)
	CancelEdit(context.Context, *SessionRequest) (*GradingView, error)
	SetMarks(context.Context, *SetMarksRequest) (*GradingView, error)
	AddUpMarks(context.Context, *AddUpMarksRequest) (*GradingView, error)
	SetGrade(context.Context, *SetGradeRequest) (*GradingView, error)
	GradingStatus(context.Context, *SessionRequest) (*GradingView, error)
	SaveGrading(context.Context, *SaveGradingRequest) (*SaveGradingResponse, error)
	CloseGrading(context.Context, *SessionRequest) (*CloseGradingResponse, error)

	GetSection(context.Context, *SectionRequest) (*SectionResponse, error)
	ListSections(context.Context, *ListSectionsRequest) (*ListSectionsResponse, error)
	ExportSection(context.Context, *SectionRequest) (*ExportResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary adapts a RecordsServer method to a grpc.MethodDesc
func unary[Req, Resp any](name string, call func(RecordsServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RecordsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RecordsServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the records service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SaveAttendance", RecordsServer.SaveAttendance),
		unary("GetAttendance", RecordsServer.GetAttendance),
		unary("GetLatestAttendance", RecordsServer.GetLatestAttendance),
		unary("ListAttendanceDates", RecordsServer.ListAttendanceDates),
		unary("OpenGrading", RecordsServer.OpenGrading),
		unary("AddCriterion", RecordsServer.AddCriterion),
		unary("EditCriterion", RecordsServer.EditCriterion),
		unary("DeleteCriterion", RecordsServer.DeleteCriterion),
		unary("StartEdit", RecordsServer.StartEdit),
		unary("SaveEdit", RecordsServer.SaveEdit),
		unary("CancelEdit", RecordsServer.CancelEdit),
		unary("SetMarks", RecordsServer.SetMarks),
		unary("AddUpMarks", RecordsServer.AddUpMarks),
		unary("SetGrade", RecordsServer.SetGrade),
		unary("GradingStatus", RecordsServer.GradingStatus),
		unary("SaveGrading", RecordsServer.SaveGrading),
		unary("CloseGrading", RecordsServer.CloseGrading),
		unary("GetSection", RecordsServer.GetSection),
		unary("ListSections", RecordsServer.ListSections),
		unary("ExportSection", RecordsServer.ExportSection),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "records",
}

// RegisterRecordsServer registers srv on s
func RegisterRecordsServer(s grpc.ServiceRegistrar, srv RecordsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ============================================================================
// Client
// ============================================================================

// RecordsClient is the client API for the records service
type RecordsClient interface {
	SaveAttendance(ctx context.Context, in *SaveAttendanceRequest, opts ...grpc.CallOption) (*SaveAttendanceResponse, error)
	GetAttendance(ctx context.Context, in *AttendanceRequest, opts ...grpc.CallOption) (*AttendanceResponse, error)
	GetLatestAttendance(ctx context.Context, in *AttendanceRequest, opts ...grpc.CallOption) (*AttendanceResponse, error)
	ListAttendanceDates(ctx context.Context, in *AttendanceRequest, opts ...grpc.CallOption) (*DatesResponse, error)

	OpenGrading(ctx context.Context, in *SectionRequest, opts ...grpc.CallOption) (*GradingView, error)
	AddCriterion(ctx context.Context, in *AddCriterionRequest, opts ...grpc.CallOption) (*GradingView, error)
	EditCriterion(ctx context.Context, in *EditCriterionRequest, opts ...grpc.CallOption) (*GradingView, error)
	DeleteCriterion(ctx context.Context, in *CriterionRequest, opts ...grpc.CallOption) (*GradingView, error)
	StartEdit(ctx context.Context, in *CriterionRequest, opts ...grpc.CallOption) (*GradingView, error)
	SaveEdit(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*GradingView, error)
	CancelEdit(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*GradingView, error)
	SetMarks(ctx context.Context, in *SetMarksRequest, opts ...grpc.CallOption) (*GradingView, error)
	AddUpMarks(ctx context.Context, in *AddUpMarksRequest, opts ...grpc.CallOption) (*GradingView, error)
	SetGrade(ctx context.Context, in *SetGradeRequest, opts ...grpc.CallOption) (*GradingView, error)
	GradingStatus(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*GradingView, error)
	SaveGrading(ctx context.Context, in *SaveGradingRequest, opts ...grpc.CallOption) (*SaveGradingResponse, error)
	CloseGrading(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*CloseGradingResponse, error)

	GetSection(ctx context.Context, in *SectionRequest, opts ...grpc.CallOption) (*SectionResponse, error)
	ListSections(ctx context.Context, in *ListSectionsRequest, opts ...grpc.CallOption) (*ListSectionsResponse, error)
	ExportSection(ctx context.Context, in *SectionRequest, opts ...grpc.CallOption) (*ExportResponse, error)
}

type recordsClient struct {
	cc grpc.ClientConnInterface
}

// NewRecordsClient creates a client over cc. Every call is sent with the
// JSON content-subtype.
func NewRecordsClient(cc grpc.ClientConnInterface) RecordsClient {
	return &recordsClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordsClient) SaveAttendance(ctx context.Context, in *SaveAttendanceRequest, opts ...grpc.CallOption) (*SaveAttendanceResponse, error) {
	return invoke[SaveAttendanceResponse](ctx, c.cc, "SaveAttendance", in, opts)
}

func (c *recordsClient) GetAttendance(ctx context.Context, in *AttendanceRequest, opts ...grpc.CallOption) (*AttendanceResponse, error) {
	return invoke[AttendanceResponse](ctx, c.cc, "GetAttendance", in, opts)
}

func (c *recordsClient) GetLatestAttendance(ctx context.Context, in *AttendanceRequest, opts ...grpc.CallOption) (*AttendanceResponse, error) {
	return invoke[AttendanceResponse](ctx, c.cc, "GetLatestAttendance", in, opts)
}

func (c *recordsClient) ListAttendanceDates(ctx context.Context, in *AttendanceRequest, opts ...grpc.CallOption) (*DatesResponse, error) {
	return invoke[DatesResponse](ctx, c.cc, "ListAttendanceDates", in, opts)
}

func (c *recordsClient) OpenGrading(ctx context.Context, in *SectionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "OpenGrading", in, opts)
}

func (c *recordsClient) AddCriterion(ctx context.Context, in *AddCriterionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "AddCriterion", in, opts)
}

func (c *recordsClient) EditCriterion(ctx context.Context, in *EditCriterionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "EditCriterion", in, opts)
}

func (c *recordsClient) DeleteCriterion(ctx context.Context, in *CriterionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "DeleteCriterion", in, opts)
}

func (c *recordsClient) StartEdit(ctx context.Context, in *CriterionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "StartEdit", in, opts)
}

func (c *recordsClient) SaveEdit(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "SaveEdit", in, opts)
}

func (c *recordsClient) CancelEdit(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "CancelEdit", in, opts)
}

func (c *recordsClient) SetMarks(ctx context.Context, in *SetMarksRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "SetMarks", in, opts)
}

func (c *recordsClient) AddUpMarks(ctx context.Context, in *AddUpMarksRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "AddUpMarks", in, opts)
}

func (c *recordsClient) SetGrade(ctx context.Context, in *SetGradeRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "SetGrade", in, opts)
}

func (c *recordsClient) GradingStatus(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*GradingView, error) {
	return invoke[GradingView](ctx, c.cc, "GradingStatus", in, opts)
}

func (c *recordsClient) SaveGrading(ctx context.Context, in *SaveGradingRequest, opts ...grpc.CallOption) (*SaveGradingResponse, error) {
	return invoke[SaveGradingResponse](ctx, c.cc, "SaveGrading", in, opts)
}

func (c *recordsClient) CloseGrading(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*CloseGradingResponse, error) {
	return invoke[CloseGradingResponse](ctx, c.cc, "CloseGrading", in, opts)
}

func (c *recordsClient) GetSection(ctx context.Context, in *SectionRequest, opts ...grpc.CallOption) (*SectionResponse, error) {
	return invoke[SectionResponse](ctx, c.cc, "GetSection", in, opts)
}

func (c *recordsClient) ListSections(ctx context.Context, in *ListSectionsRequest, opts ...grpc.CallOption) (*ListSectionsResponse, error) {
	return invoke[ListSectionsResponse](ctx, c.cc, "ListSections", in, opts)
}

func (c *recordsClient) ExportSection(ctx context.Context, in *SectionRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, "ExportSection", in, opts)
}
