package tests

import (
	"net/http"
	"strings"
	"testing"
)

const section = "sec-cs101-1a"

func TestGateway_Sections(t *testing.T) {
	env := setupGatewayTestEnv(t)

	// --- Test 1: List Sections (GET /api/instructors/:id/sections) ---
	t.Run("List Sections", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/instructors/inst-1/sections", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		sections, _ := decode(t, rr)["sections"].([]interface{})
		if len(sections) != 2 {
			t.Errorf("Expected 2 sections for inst-1, got %d", len(sections))
		}
	})

	// --- Test 2: Get Section (GET /api/sections/:id) ---
	t.Run("Get Section", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/sections/"+section, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		data, _ := decode(t, rr)["data"].(map[string]interface{})
		students, _ := data["students"].([]interface{})
		if len(students) != 2 {
			t.Errorf("Expected 2 enrolled students, got %d", len(students))
		}
	})

	// --- Test 3: Unknown Section ---
	t.Run("Unknown Section", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/sections/sec-none", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rr.Code)
		}
	})

	// --- Test 4: Export (GET /api/sections/:id/export) ---
	t.Run("Export Workbook", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/sections/"+section+"/export", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "Introduction_to_Programming_BSCS_1A.xlsx") {
			t.Errorf("Unexpected Content-Disposition %q", cd)
		}
		if rr.Body.Len() == 0 {
			t.Error("Expected a workbook body")
		}
	})
}

func TestGateway_Attendance(t *testing.T) {
	env := setupGatewayTestEnv(t)
	base := "/api/sections/" + section + "/attendance"

	// --- Test 1: Incomplete day is refused ---
	t.Run("Incomplete Attendance", func(t *testing.T) {
		rr := env.do(t, "PUT", base+"/2024-03-04", map[string]interface{}{
			"records": map[string]bool{"st-001": true},
		})
		if rr.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		if msg, _ := decode(t, rr)["message"].(string); !strings.Contains(msg, "st-003") {
			t.Errorf("Expected the missing student in %q", msg)
		}
	})

	// --- Test 2: Missing body field ---
	t.Run("Missing Records", func(t *testing.T) {
		rr := env.do(t, "PUT", base+"/2024-03-04", map[string]interface{}{})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rr.Code)
		}
		fields, _ := decode(t, rr)["fields"].(map[string]interface{})
		if fields["records"] != "is required" {
			t.Errorf("Expected records to be reported, got %v", fields)
		}
	})

	// --- Test 3: Bad date ---
	t.Run("Bad Date", func(t *testing.T) {
		rr := env.do(t, "PUT", base+"/04-03-2024", map[string]interface{}{
			"records": map[string]bool{"st-001": true, "st-003": true},
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
	})

	// --- Test 4: Save two days and read them back ---
	t.Run("Save And Read", func(t *testing.T) {
		for date, presence := range map[string]map[string]bool{
			"2024-03-04": {"st-001": true, "st-003": false},
			"2024-03-05": {"st-001": true, "st-003": true},
		} {
			rr := env.do(t, "PUT", base+"/"+date, map[string]interface{}{"records": presence})
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected 200 for %s, got %d. Body: %s", date, rr.Code, rr.Body.String())
			}
		}

		rr := env.do(t, "GET", base+"/dates", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		dates, _ := decode(t, rr)["dates"].([]interface{})
		if len(dates) != 2 || dates[0] != "2024-03-04" {
			t.Errorf("Unexpected dates %v", dates)
		}

		rr = env.do(t, "GET", base+"/latest", nil)
		data, _ := decode(t, rr)["data"].(map[string]interface{})
		if data["date"] != "2024-03-05" {
			t.Errorf("Expected latest 2024-03-05, got %v", data["date"])
		}

		rr = env.do(t, "GET", base+"/2024-03-04", nil)
		data, _ = decode(t, rr)["data"].(map[string]interface{})
		recs, _ := data["records"].(map[string]interface{})
		if recs["st-003"] != false || recs["st-001"] != true {
			t.Errorf("Unexpected records %v", recs)
		}
	})
}

func TestGateway_Grading(t *testing.T) {
	env := setupGatewayTestEnv(t)

	rr := env.do(t, "POST", "/api/sections/"+section+"/grading", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	grading, _ := decode(t, rr)["grading"].(map[string]interface{})
	sessionID, _ := grading["session_id"].(string)
	if sessionID == "" {
		t.Fatal("Expected a session id")
	}
	base := "/api/grading/" + sessionID

	t.Run("Add Criterion", func(t *testing.T) {
		rr := env.do(t, "POST", base+"/criteria", map[string]interface{}{
			"assessment": "Quiz 1", "weightage": "50", "totalMarks": 20,
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}

		rr = env.do(t, "POST", base+"/criteria", map[string]interface{}{
			"assessment": "Lab", "weightage": "", "totalMarks": 10,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for a blank weightage, got %d", rr.Code)
		}
	})

	t.Run("Save Refused While Marks Missing", func(t *testing.T) {
		rr := env.do(t, "POST", base+"/save", nil)
		if rr.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d. Body: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("Enter Marks", func(t *testing.T) {
		rr := env.do(t, "PUT", base+"/marks/Quiz%201", map[string]interface{}{
			"marks": map[string]interface{}{"st-001": 15, "st-003": "18"},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}

		rr = env.do(t, "POST", base+"/marks/Quiz%201/add", map[string]interface{}{
			"deltas": map[string]float64{"st-001": 2},
		})
		grading, _ := decode(t, rr)["grading"].(map[string]interface{})
		if grading["all_marks_entered"] != true {
			t.Errorf("Expected all marks entered, got %v", grading["all_marks_entered"])
		}
	})

	t.Run("Set Grade", func(t *testing.T) {
		rr := env.do(t, "PUT", base+"/grades/st-001", map[string]string{"grade": "a"})
		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		rr = env.do(t, "PUT", base+"/grades/st-001", map[string]string{})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
	})

	t.Run("Rename Criterion", func(t *testing.T) {
		rr := env.do(t, "PATCH", base+"/criteria/Quiz%201", map[string]interface{}{"assessment": "Quiz A"})
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		rr = env.do(t, "POST", base+"/edit/save", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		grading, _ := decode(t, rr)["grading"].(map[string]interface{})
		students, _ := grading["students"].([]interface{})
		first, _ := students[0].(map[string]interface{})
		marks, _ := first["marks"].(map[string]interface{})
		if marks["Quiz A"] != 17.0 {
			t.Errorf("Expected marks re-keyed to Quiz A, got %v", marks)
		}
	})

	t.Run("Save", func(t *testing.T) {
		rr := env.do(t, "POST", base+"/save", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		if msg, _ := decode(t, rr)["message"].(string); !strings.Contains(msg, "warning") {
			t.Errorf("Expected a weightage warning in %q", msg)
		}
		if ids := env.Store.IDs("studentsMarks"); len(ids) != 1 || ids[0] != section {
			t.Errorf("Expected the section document to be written, got %v", ids)
		}
	})

	t.Run("Close", func(t *testing.T) {
		rr := env.do(t, "DELETE", base, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		rr = env.do(t, "GET", base, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404 after close, got %d", rr.Code)
		}
	})
}
