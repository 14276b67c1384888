// internal/workers/matching/calculate-fit-score/models.go
package calculatefitscore

import (
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/engine"
)

type Input struct {
	StudentID    string `json:"studentId"`
	UniversityID string `json:"universityId"`
}

type Output struct {
	FitScore  int                 `json:"fitScore"`
	Breakdown engine.FitBreakdown `json:"fitBreakdown"`
}

const inputSchema = `{
  "type": "object",
  "required": ["studentId", "universityId"],
  "properties": {
    "studentId":    {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "universityId": {"type": "string", "pattern": "` + validation.IDPattern + `"}
  }
}`
