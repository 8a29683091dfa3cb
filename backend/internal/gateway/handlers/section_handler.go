package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"classledger/backend/internal/gateway/util"
	"classledger/backend/internal/records"
)

// requestTimeout bounds every call the gateway forwards to the records service
const requestTimeout = 10 * time.Second

// SectionHandler serves section lookups and workbook exports
type SectionHandler struct {
	RecordsClient records.RecordsClient
}

// pathParam returns a URL parameter with percent-escapes decoded, so
// assessment names may carry spaces or slashes.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// ListSections handles GET /instructors/{instructor_id}/sections
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	instructorID := pathParam(r, "instructor_id")
	if instructorID == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "instructor_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.ListSections(ctx, &records.ListSectionsRequest{InstructorID: instructorID})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"sections": grpcResp.Sections,
	})
}

// GetSection handles GET /sections/{assign_course_id}
// Returns the roster and each student's attendance summary.
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.GetSection(ctx, &records.SectionRequest{AssignCourseID: pathParam(r, "assign_course_id")})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, grpcResp)
}

// ExportSection handles GET /sections/{assign_course_id}/export
// Streams the saved attendance and marks as an .xlsx download.
func (h *SectionHandler) ExportSection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	grpcResp, err := h.RecordsClient.ExportSection(ctx, &records.SectionRequest{AssignCourseID: pathParam(r, "assign_course_id")})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	w.Header().Set("Content-Type", grpcResp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", grpcResp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(grpcResp.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(grpcResp.Data)
}
