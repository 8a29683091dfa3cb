package handlers

import (
	"context"
	"net/http"

	"google.golang.org/grpc"

	"classledger/backend/internal/gateway/util"
	"classledger/backend/internal/records"
)

// AttendanceHandler serves a section's attendance ledger
type AttendanceHandler struct {
	RecordsClient records.RecordsClient
}

// RESTSaveAttendanceRequest mirrors the JSON input for PUT /attendance/{date}
type RESTSaveAttendanceRequest struct {
	Records map[string]bool `json:"records" validate:"required"`
}

// SaveAttendance handles PUT /sections/{assign_course_id}/attendance/{date}
// Every enrolled student must appear in records; 409 lists the ones missing.
func (h *AttendanceHandler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	var body RESTSaveAttendanceRequest
	if err := util.DecodeJSON(r, &body, false); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.SaveAttendance(ctx, &records.SaveAttendanceRequest{
		AssignCourseID: pathParam(r, "assign_course_id"),
		Date:           pathParam(r, "date"),
		Records:        body.Records,
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": grpcResp.Success,
		"message": grpcResp.Message,
		"dates":   grpcResp.Dates,
	})
}

// GetAttendance handles GET /sections/{assign_course_id}/attendance/{date}
func (h *AttendanceHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	h.fetch(w, r, h.RecordsClient.GetAttendance, &records.AttendanceRequest{
		AssignCourseID: pathParam(r, "assign_course_id"),
		Date:           pathParam(r, "date"),
	})
}

// GetLatest handles GET /sections/{assign_course_id}/attendance/latest
func (h *AttendanceHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	h.fetch(w, r, h.RecordsClient.GetLatestAttendance, &records.AttendanceRequest{
		AssignCourseID: pathParam(r, "assign_course_id"),
	})
}

type attendanceCall func(context.Context, *records.AttendanceRequest, ...grpc.CallOption) (*records.AttendanceResponse, error)

func (h *AttendanceHandler) fetch(w http.ResponseWriter, r *http.Request, call attendanceCall, req *records.AttendanceRequest) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := call(ctx, req)
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, grpcResp)
}

// ListDates handles GET /sections/{assign_course_id}/attendance/dates
func (h *AttendanceHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.ListAttendanceDates(ctx, &records.AttendanceRequest{
		AssignCourseID: pathParam(r, "assign_course_id"),
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"dates":   grpcResp.Dates,
	})
}
