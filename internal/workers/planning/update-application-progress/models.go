// internal/workers/planning/update-application-progress/models.go
package updateapplicationprogress

import (
	"time"

	"pathfinder-workers/internal/common/validation"
)

const (
	ActionChecklist = "checklist"
	ActionTimeline  = "timeline"
	ActionStatus    = "status"
)

type Input struct {
	Action       string `json:"action"`
	ActorID      string `json:"actorId"`
	StudentID    string `json:"studentId"`
	UniversityID string `json:"universityId"`

	// checklist
	DocumentName string `json:"documentName,omitempty"`
	FileRef      string `json:"fileRef,omitempty"`

	// timeline
	StepName      string     `json:"stepName,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`

	// status
	Notes *string `json:"notes,omitempty"`

	Status string `json:"status"`
}

type Output struct {
	Action        string     `json:"action"`
	Status        string     `json:"status"`
	FileRef       string     `json:"fileRef,omitempty"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// inputSchema requires the target field of each action and limits status
// to the values that action accepts.
const inputSchema = `{
  "type": "object",
  "required": ["action", "actorId", "studentId", "universityId", "status"],
  "properties": {
    "action":        {"type": "string", "enum": ["checklist", "timeline", "status"]},
    "actorId":       {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "studentId":     {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "universityId":  {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "documentName":  {"type": "string", "minLength": 1},
    "fileRef":       {"type": "string"},
    "stepName":      {"type": "string", "minLength": 1},
    "completedDate": {"type": "string", "format": "date-time"},
    "notes":         {"type": "string", "maxLength": 2000},
    "status":        {"type": "string"}
  },
  "allOf": [
    {
      "if":   {"properties": {"action": {"const": "checklist"}}},
      "then": {
        "required": ["documentName"],
        "properties": {"status": {"enum": ["Pending", "Uploaded", "Verified"]}}
      }
    },
    {
      "if":   {"properties": {"action": {"const": "timeline"}}},
      "then": {
        "required": ["stepName"],
        "properties": {"status": {"enum": ["Pending", "Completed"]}}
      }
    },
    {
      "if":   {"properties": {"action": {"const": "status"}}},
      "then": {
        "properties": {"status": {"enum": ["Not Started", "In Progress", "Submitted", "Accepted", "Rejected", "Waitlisted"]}}
      }
    }
  ]
}`
