// internal/workers/matching/calculate-fit-score/handler_test.go
package calculatefitscore

import (
	"context"
	"testing"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubScorer struct {
	result engine.FitResult
	err    error
	calls  int
}

func (s *stubScorer) ExplainFitScore(_ context.Context, _, _ string) (engine.FitResult, error) {
	s.calls++
	return s.result, s.err
}

func createTestHandler(t *testing.T, scorer FitScorer) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, scorer, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	scorer := &stubScorer{result: engine.FitResult{
		Score:     85,
		Breakdown: engine.FitBreakdown{GPA: 15, Major: 15, Tests: 25, Financial: 20, TestsEvaluated: 1},
	}}
	h := createTestHandler(t, scorer)

	out, err := h.Execute(context.Background(), &Input{StudentID: "stu-1", UniversityID: "uni-1"})

	require.NoError(t, err)
	assert.Equal(t, 85, out.FitScore)
	assert.Equal(t, 30.0, out.Breakdown.Academic())
	assert.Equal(t, 1, scorer.calls)
}

func TestHandler_Execute_PropagatesErrors(t *testing.T) {
	h := createTestHandler(t, &stubScorer{err: errors.NewUniversityNotFoundError("uni-9")})

	out, err := h.Execute(context.Background(), &Input{StudentID: "stu-1", UniversityID: "uni-9"})

	assert.Nil(t, out)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUniversityNotFound))
}

// ==========================
// Input Validation Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, &stubScorer{})

	tests := []struct {
		name      string
		variables string
		wantCode  errors.ErrorCode
	}{
		{"valid", `{"studentId":"stu-1","universityId":"uni-1","extra":true}`, ""},
		{"missing university", `{"studentId":"stu-1"}`, errors.ErrCodeSchemaValidationFailed},
		{"blank student", `{"studentId":"","universityId":"uni-1"}`, errors.ErrCodeSchemaValidationFailed},
		{"wrong type", `{"studentId":7,"universityId":"uni-1"}`, errors.ErrCodeSchemaValidationFailed},
		{"not json", `studentId=stu-1`, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.variables)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "uni-1", input.UniversityID)
				return
			}
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 10*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 2500*time.Millisecond, LoadConfig(config.WorkerConfig{Timeout: 2500}).Timeout)
}
