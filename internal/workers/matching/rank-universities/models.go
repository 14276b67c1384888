// internal/workers/matching/rank-universities/models.go
package rankuniversities

import (
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/service/planner"
)

type Input struct {
	StudentID     string   `json:"studentId"`
	UniversityIDs []string `json:"universityIds"`
}

type Output struct {
	Matches    []planner.Match `json:"matches"`
	TopMatch   *planner.Match  `json:"topMatch,omitempty"`
	Candidates []string        `json:"shortlistCandidates"`
	Count      int             `json:"matchCount"`
}

const inputSchema = `{
  "type": "object",
  "required": ["studentId", "universityIds"],
  "properties": {
    "studentId":     {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "universityIds": {
      "type": "array",
      "items": {"type": "string", "pattern": "` + validation.IDPattern + `"}
    }
  }
}`
