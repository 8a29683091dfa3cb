package handlers

import (
	"context"
	"net/http"

	"classledger/backend/internal/gateway/util"
	"classledger/backend/internal/records"
)

// GradingHandler drives grading sessions. A session is opened per section
// and addressed by its id in the URL until it is saved and closed.
type GradingHandler struct {
	RecordsClient records.RecordsClient
}

// RESTAddCriterionRequest mirrors the JSON input for POST /criteria.
// Weightage and totalMarks may be numbers or numeric text.
type RESTAddCriterionRequest struct {
	Assessment string      `json:"assessment" validate:"max=200"`
	Weightage  interface{} `json:"weightage"`
	TotalMarks interface{} `json:"totalMarks"`
}

// RESTEditCriterionRequest mirrors the JSON input for PATCH /criteria/{assessment}.
// Omitted fields are left unchanged.
type RESTEditCriterionRequest struct {
	Assessment *string     `json:"assessment" validate:"omitempty,max=200"`
	Weightage  interface{} `json:"weightage"`
	TotalMarks interface{} `json:"totalMarks"`
}

type RESTSetMarksRequest struct {
	Marks map[string]interface{} `json:"marks" validate:"required"`
}

type RESTAddUpMarksRequest struct {
	Deltas map[string]float64 `json:"deltas" validate:"required"`
}

type RESTSetGradeRequest struct {
	Grade string `json:"grade" validate:"required"`
}

type RESTSaveGradingRequest struct {
	Force bool `json:"force"`
}

// respondView forwards one session call and writes the resulting view
func respondView(w http.ResponseWriter, r *http.Request, call func(ctx context.Context) (*records.GradingView, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := call(ctx)
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"grading": view,
	})
}

// OpenGrading handles POST /sections/{assign_course_id}/grading
func (h *GradingHandler) OpenGrading(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := h.RecordsClient.OpenGrading(ctx, &records.SectionRequest{AssignCourseID: pathParam(r, "assign_course_id")})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"grading": view,
	})
}

// GradingStatus handles GET /grading/{session_id}
func (h *GradingHandler) GradingStatus(w http.ResponseWriter, r *http.Request) {
	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.GradingStatus(ctx, &records.SessionRequest{SessionID: pathParam(r, "session_id")})
	})
}

// AddCriterion handles POST /grading/{session_id}/criteria
func (h *GradingHandler) AddCriterion(w http.ResponseWriter, r *http.Request) {
	var body RESTAddCriterionRequest
	if err := util.DecodeJSON(r, &body, false); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.AddCriterion(ctx, &records.AddCriterionRequest{
			SessionID:  pathParam(r, "session_id"),
			Assessment: body.Assessment,
			Weightage:  body.Weightage,
			TotalMarks: body.TotalMarks,
		})
	})
}

// EditCriterion handles PATCH /grading/{session_id}/criteria/{assessment}
// The criterion stays in focus until the edit is saved or cancelled.
func (h *GradingHandler) EditCriterion(w http.ResponseWriter, r *http.Request) {
	var body RESTEditCriterionRequest
	if err := util.DecodeJSON(r, &body, false); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.EditCriterion(ctx, &records.EditCriterionRequest{
			SessionID:     pathParam(r, "session_id"),
			Assessment:    pathParam(r, "assessment"),
			NewAssessment: body.Assessment,
			Weightage:     body.Weightage,
			TotalMarks:    body.TotalMarks,
		})
	})
}

// DeleteCriterion handles DELETE /grading/{session_id}/criteria/{assessment}
func (h *GradingHandler) DeleteCriterion(w http.ResponseWriter, r *http.Request) {
	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.DeleteCriterion(ctx, h.criterionRequest(r))
	})
}

// StartEdit handles POST /grading/{session_id}/criteria/{assessment}/edit
func (h *GradingHandler) StartEdit(w http.ResponseWriter, r *http.Request) {
	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.StartEdit(ctx, h.criterionRequest(r))
	})
}

func (h *GradingHandler) criterionRequest(r *http.Request) *records.CriterionRequest {
	return &records.CriterionRequest{
		SessionID:  pathParam(r, "session_id"),
		Assessment: pathParam(r, "assessment"),
	}
}

// SaveEdit handles POST /grading/{session_id}/edit/save
func (h *GradingHandler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.SaveEdit(ctx, &records.SessionRequest{SessionID: pathParam(r, "session_id")})
	})
}

// CancelEdit handles POST /grading/{session_id}/edit/cancel
func (h *GradingHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.CancelEdit(ctx, &records.SessionRequest{SessionID: pathParam(r, "session_id")})
	})
}

// SetMarks handles PUT /grading/{session_id}/marks/{assessment}
func (h *GradingHandler) SetMarks(w http.ResponseWriter, r *http.Request) {
	var body RESTSetMarksRequest
	if err := util.DecodeJSON(r, &body, false); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.SetMarks(ctx, &records.SetMarksRequest{
			SessionID:  pathParam(r, "session_id"),
			Assessment: pathParam(r, "assessment"),
			Marks:      body.Marks,
		})
	})
}

// AddUpMarks handles POST /grading/{session_id}/marks/{assessment}/add
func (h *GradingHandler) AddUpMarks(w http.ResponseWriter, r *http.Request) {
	var body RESTAddUpMarksRequest
	if err := util.DecodeJSON(r, &body, false); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.AddUpMarks(ctx, &records.AddUpMarksRequest{
			SessionID:  pathParam(r, "session_id"),
			Assessment: pathParam(r, "assessment"),
			Deltas:     body.Deltas,
		})
	})
}

// SetGrade handles PUT /grading/{session_id}/grades/{student_id}
func (h *GradingHandler) SetGrade(w http.ResponseWriter, r *http.Request) {
	var body RESTSetGradeRequest
	if err := util.DecodeJSON(r, &body, false); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	respondView(w, r, func(ctx context.Context) (*records.GradingView, error) {
		return h.RecordsClient.SetGrade(ctx, &records.SetGradeRequest{
			SessionID: pathParam(r, "session_id"),
			StudentID: pathParam(r, "student_id"),
			Grade:     body.Grade,
		})
	})
}

// SaveGrading handles POST /grading/{session_id}/save
// Body is optional; {"force": true} saves despite missing marks.
func (h *GradingHandler) SaveGrading(w http.ResponseWriter, r *http.Request) {
	var body RESTSaveGradingRequest
	if err := util.DecodeJSON(r, &body, true); err != nil {
		util.WriteDecodeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.SaveGrading(ctx, &records.SaveGradingRequest{
		SessionID: pathParam(r, "session_id"),
		Force:     body.Force,
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": grpcResp.Success,
		"message": grpcResp.Message,
		"grading": grpcResp.View,
	})
}

// CloseGrading handles DELETE /grading/{session_id}
func (h *GradingHandler) CloseGrading(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.CloseGrading(ctx, &records.SessionRequest{SessionID: pathParam(r, "session_id")})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": grpcResp.Success,
		"message": grpcResp.Message,
	})
}
