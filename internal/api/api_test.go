// internal/api/api_test.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"
	"pathfinder-workers/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	store := memstore.New().WithClock(func() time.Time { return fixedNow })
	store.PutStudent(models.StudentProfile{
		ID:         "stu-1",
		Academics:  models.Academics{GPA: models.Float(3.8)},
		TestScores: map[string]float64{models.TestSAT: 1400},
	})
	store.PutAccount(models.NewStudentAccount(models.StudentIdentity{ID: "stu-1"}))
	store.PutAccount(models.NewCounselorAccount(models.CounselorProfile{ID: "coach-1", AssignedStudents: []string{"stu-9"}}))
	store.PutUniversity(models.RequirementModel{
		UniversityID:         "uni-1",
		Name:                 "Lakeside University",
		MinGPA:               models.Float(3.5),
		RequiredDocuments:    []string{"Transcript"},
		ApplicationDeadlines: []models.Deadline{{Term: "Fall", Date: fixedNow.AddDate(0, 0, 20)}},
	})
	store.PutUniversity(models.RequirementModel{UniversityID: "uni-2", Name: "Hilltop College"})

	p := planner.New(config.PlannerConfig{}, store, store, store, store, logger.NewTestLogger(t))
	s := NewServer(config.HTTPConfig{RequestTimeout: 2000}, p, logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }
	return s, store
}

func do(t *testing.T, s *Server, method, path, actorID, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set(ActorHeader, actorID)
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

// ==========================
// Read Endpoint Tests
// ==========================

func TestAPI_FitScore(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := do(t, s, http.MethodGet, "/api/students/stu-1/universities/uni-1/fit-score", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "uni-1", body["universityId"])
	assert.EqualValues(t, 15, body["fitScore"])
	assert.Contains(t, body, "breakdown")

	status, body = do(t, s, http.MethodGet, "/api/students/stu-1/universities/missing/fit-score", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UNIVERSITY_NOT_FOUND", errorCode(body))
}

func TestAPI_RankMatches(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := do(t, s, http.MethodPost, "/api/students/stu-1/matches", "",
		`{"universityIds":["uni-2","uni-1","uni-2"]}`)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["matchCount"])

	matches := body["matches"].([]interface{})
	assert.Equal(t, "uni-1", matches[0].(map[string]interface{})["universityId"])

	status, body = do(t, s, http.MethodPost, "/api/students/stu-1/matches", "", `{"universityIds":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))
}

func TestAPI_Plan(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := do(t, s, http.MethodGet, "/api/students/stu-1/universities/uni-1/plan", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["shortlisted"])
	window := body["windowStatus"].(map[string]interface{})
	assert.Equal(t, "Apply for Fall", window["label"])
	assert.Equal(t, "high", window["urgency"])

	status, body = do(t, s, http.MethodGet, "/api/students/stu-1/universities/uni-1/plan?now=2026-03-01T00:00:00Z", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Applications Closed", body["windowStatus"].(map[string]interface{})["label"])

	status, body = do(t, s, http.MethodGet, "/api/students/stu-1/universities/uni-1/plan?now=yesterday", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", errorCode(body))
}

// ==========================
// Progress Endpoint Tests
// ==========================

func TestAPI_ShortlistLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	base := "/api/students/stu-1/shortlist/uni-1"

	status, body := do(t, s, http.MethodPost, base, "stu-1", `{"notes":"dream school"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 15, body["fitScoreSnapshot"])
	assert.Equal(t, "Not Started", body["applicationStatus"])
	assert.NotEmpty(t, body["id"])

	status, body = do(t, s, http.MethodPost, base, "stu-1", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_SHORTLISTED", errorCode(body))

	status, body = do(t, s, http.MethodPut, base+"/checklist", "stu-1",
		`{"documentName":"Transcript","status":"Uploaded","fileRef":"s3://docs/t.pdf"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Uploaded", body["status"])
	assert.Equal(t, "s3://docs/t.pdf", body["fileRef"])

	status, body = do(t, s, http.MethodPut, base+"/timeline", "stu-1",
		`{"stepName":"Prepare Documents","status":"Completed"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Completed", body["status"])
	assert.NotNil(t, body["completedDate"])

	status, _ = do(t, s, http.MethodPut, base+"/status", "stu-1", `{"status":"Submitted"}`)
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, s, http.MethodGet, "/api/students/stu-1/universities/uni-1/plan", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["shortlisted"])
	assert.Equal(t, "Submitted", body["applicationStatus"])
	assert.Equal(t, "dream school", body["notes"])

	status, body = do(t, s, http.MethodGet, "/api/students/stu-1/shortlist", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["shortlist"], 1)

	status, _ = do(t, s, http.MethodDelete, base, "stu-1", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, s, http.MethodDelete, base, "stu-1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_SHORTLISTED", errorCode(body))
}

func TestAPI_WriteErrors(t *testing.T) {
	s, _ := newTestServer(t)
	base := "/api/students/stu-1/shortlist/uni-1"

	tests := []struct {
		name       string
		method     string
		path       string
		actor      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing actor", http.MethodPost, base, "", "", http.StatusUnauthorized, "HTTP_401"},
		{"unassigned counselor", http.MethodPost, base, "coach-1", "", http.StatusForbidden, "PERMISSION_DENIED"},
		{"unknown actor", http.MethodPost, base, "ghost", "", http.StatusForbidden, "PERMISSION_DENIED"},
		{"checklist without record", http.MethodPut, base + "/checklist", "stu-1",
			`{"documentName":"Transcript","status":"Uploaded"}`, http.StatusNotFound, "NOT_SHORTLISTED"},
		{"bad checklist status", http.MethodPut, base + "/checklist", "stu-1",
			`{"documentName":"Transcript","status":"Lost"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad application status", http.MethodPut, base + "/status", "stu-1",
			`{"status":"Maybe"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, s, tt.method, tt.path, tt.actor, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, errorCode(body))
		})
	}
}
