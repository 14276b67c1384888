// internal/workers/planning/update-application-progress/handler_test.go
package updateapplicationprogress

import (
	"context"
	"testing"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/errors"
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

func createTestHandler(t *testing.T) (*Handler, *memstore.Store) {
	store := memstore.New()
	store.PutStudent(models.StudentProfile{ID: "stu-1"})
	store.PutUniversity(models.RequirementModel{UniversityID: "uni-1", RequiredDocuments: []string{"Essay"}})
	store.PutAccount(models.NewStudentAccount(models.StudentIdentity{ID: "stu-1"}))
	store.PutAccount(models.NewCounselorAccount(models.CounselorProfile{ID: "c-1", AssignedStudents: []string{"stu-1"}}))

	p := planner.New(config.PlannerConfig{}, store, store, store, store, logger.NewTestLogger(t))
	_, err := p.Shortlist(context.Background(), "stu-1", "stu-1", "uni-1", "")
	require.NoError(t, err)

	return NewHandler(&Config{Timeout: time.Second}, p, logger.NewTestLogger(t)), store
}

func baseInput(action, status string) *Input {
	return &Input{Action: action, ActorID: "c-1", StudentID: "stu-1", UniversityID: "uni-1", Status: status}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Checklist(t *testing.T) {
	h, store := createTestHandler(t)
	in := baseInput(ActionChecklist, "Uploaded")
	in.DocumentName = "Essay"
	in.FileRef = "files/essay.pdf"

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "files/essay.pdf", out.FileRef)
	require.NotNil(t, out.LastUpdated)

	rec, _ := store.Get(context.Background(), "stu-1", "uni-1")
	o, ok := rec.Checklist("Essay")
	require.True(t, ok)
	assert.Equal(t, models.ChecklistUploaded, o.Status)
}

func TestHandler_Execute_Timeline(t *testing.T) {
	h, _ := createTestHandler(t)
	done := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	in := baseInput(ActionTimeline, "Completed")
	in.StepName = "Prepare Documents"
	in.CompletedDate = &done

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.CompletedDate)
	assert.True(t, done.Equal(*out.CompletedDate))
}

func TestHandler_Execute_Status(t *testing.T) {
	h, store := createTestHandler(t)
	notes := "submitted via portal"
	in := baseInput(ActionStatus, "Submitted")
	in.Notes = &notes

	_, err := h.Execute(context.Background(), in)
	require.NoError(t, err)

	rec, _ := store.Get(context.Background(), "stu-1", "uni-1")
	assert.Equal(t, models.StatusSubmitted, rec.ApplicationStatus)
	assert.Equal(t, notes, rec.Notes)
}

func TestHandler_Execute_NotShortlisted(t *testing.T) {
	h, _ := createTestHandler(t)
	in := baseInput(ActionStatus, "Accepted")
	in.UniversityID = "uni-2"

	_, err := h.Execute(context.Background(), in)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotShortlisted))
}

// ==========================
// Input Validation Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h, _ := createTestHandler(t)

	tests := []struct {
		name      string
		variables string
		valid     bool
	}{
		{"checklist", `{"action":"checklist","actorId":"a","studentId":"s","universityId":"u","documentName":"Essay","status":"Verified"}`, true},
		{"checklist missing document", `{"action":"checklist","actorId":"a","studentId":"s","universityId":"u","status":"Verified"}`, false},
		{"checklist wrong status", `{"action":"checklist","actorId":"a","studentId":"s","universityId":"u","documentName":"Essay","status":"Completed"}`, false},
		{"timeline", `{"action":"timeline","actorId":"a","studentId":"s","universityId":"u","stepName":"Prepare Documents","status":"Completed"}`, true},
		{"timeline bad date", `{"action":"timeline","actorId":"a","studentId":"s","universityId":"u","stepName":"X","status":"Completed","completedDate":"soon"}`, false},
		{"status", `{"action":"status","actorId":"a","studentId":"s","universityId":"u","status":"Waitlisted","notes":"hmm"}`, true},
		{"status unknown", `{"action":"status","actorId":"a","studentId":"s","universityId":"u","status":"Deferred"}`, false},
		{"unknown action", `{"action":"archive","actorId":"a","studentId":"s","universityId":"u","status":"Pending"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(tt.variables)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.HasCode(err, errors.ErrCodeSchemaValidationFailed), "got %v", err)
			}
		})
	}
}
