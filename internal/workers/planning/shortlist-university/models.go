// internal/workers/planning/shortlist-university/models.go
package shortlistuniversity

import "pathfinder-workers/internal/common/validation"

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

type Input struct {
	ActorID      string `json:"actorId"`
	StudentID    string `json:"studentId"`
	UniversityID string `json:"universityId"`
	Action       string `json:"action,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Output struct {
	Shortlisted       bool   `json:"shortlisted"`
	ProgressID        string `json:"progressId,omitempty"`
	FitScoreSnapshot  int    `json:"fitScoreSnapshot,omitempty"`
	ApplicationStatus string `json:"applicationStatus,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["actorId", "studentId", "universityId"],
  "properties": {
    "actorId":      {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "studentId":    {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "universityId": {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "action":       {"type": "string", "enum": ["add", "remove"]},
    "notes":        {"type": "string", "maxLength": 2000}
  }
}`
