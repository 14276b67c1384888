// internal/workers/planning/build-application-plan/models.go
package buildapplicationplan

import (
	"time"

	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/service/planner"
)

type Input struct {
	StudentID    string `json:"studentId"`
	UniversityID string `json:"universityId"`
	// AsOf pins the evaluation time; the job's activation time otherwise.
	AsOf *time.Time `json:"asOf,omitempty"`
}

// Output carries the plan plus flat summary fields for gateway conditions.
type Output struct {
	Plan             *planner.ApplicationPlan `json:"applicationPlan"`
	WindowOpen       bool                     `json:"windowOpen"`
	Urgency          string                   `json:"urgency,omitempty"`
	DaysLeft         int                      `json:"daysLeft"`
	PendingDocuments int                      `json:"pendingDocuments"`
	OverdueSteps     int                      `json:"overdueSteps"`
	NextStep         string                   `json:"nextStep,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["studentId", "universityId"],
  "properties": {
    "studentId":    {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "universityId": {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "asOf":         {"type": "string", "format": "date-time"}
  }
}`
