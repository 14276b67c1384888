// internal/engine/timeline.go
package engine

import (
	"fmt"
	"strings"
	"time"

	"pathfinder-workers/internal/models"
)

const TakeSATStep = "Take SAT Exam"

// DefaultTimeline replaces an empty university template.
var DefaultTimeline = []models.TemplateStep{
	{StepName: "Research & Shortlist", Description: "Decide if this uni is right for you"},
	{StepName: "Prepare Documents", Description: "Gather transcripts, LORs, and required test scores"},
}

type TimelineStep struct {
	StepName      string                `json:"stepName"`
	Description   string                `json:"description,omitempty"`
	DeadlineDate  *time.Time            `json:"deadlineDate,omitempty"`
	IsDynamic     bool                  `json:"isDynamic,omitempty"`
	Status        models.TimelineStatus `json:"status"`
	CompletedDate *time.Time            `json:"completedDate,omitempty"`
	Overdue       bool                  `json:"overdue,omitempty"`
}

// BuildTimeline synthesizes the application timeline for one university and
// overlays the student's saved progress. Steps whose deadline is before now
// and that are not completed are flagged overdue.
func BuildTimeline(req *models.RequirementModel, student *models.StudentProfile, progress *models.ApplicationProgress, now time.Time) []TimelineStep {
	steps := MergeTimeline(TimelineTemplate(req, student), progress)
	for i := range steps {
		d := steps[i].DeadlineDate
		steps[i].Overdue = d != nil && d.Before(now) && steps[i].Status != models.TimelineCompleted
	}
	return steps
}

// TimelineTemplate is the timeline before any student overrides apply. The
// submit step is always bound to the first listed deadline.
func TimelineTemplate(req *models.RequirementModel, student *models.StudentProfile) []TimelineStep {
	var source []models.TemplateStep
	if req != nil {
		source = req.TimelineTemplate
	}
	if len(source) == 0 {
		source = DefaultTimeline
	}

	steps := make([]TimelineStep, 0, len(source)+2)
	for _, s := range source {
		steps = append(steps, TimelineStep{
			StepName:     s.StepName,
			Description:  s.Description,
			DeadlineDate: copyTime(s.DeadlineDate),
		})
	}

	if req != nil && len(req.ApplicationDeadlines) > 0 {
		relevant := req.ApplicationDeadlines[0]
		due := relevant.Date
		idx := -1
		for i, s := range steps {
			if strings.Contains(strings.ToLower(s.StepName), "submit") {
				idx = i
				break
			}
		}
		if idx >= 0 {
			steps[idx].DeadlineDate = &due
			steps[idx].Description = fmt.Sprintf("Submit by this date for %s intake.", relevant.Term)
		} else {
			steps = append(steps, TimelineStep{
				StepName:     fmt.Sprintf("Submit Application (%s)", relevant.Term),
				Description:  "Complete submission and pay application fees.",
				DeadlineDate: &due,
			})
		}
	}

	if threshold, ok := req.Threshold(models.TestSAT); ok {
		if score, has := student.Score(models.TestSAT); !has || score < threshold {
			prep := TimelineStep{
				StepName:    TakeSATStep,
				Description: fmt.Sprintf("Target Score: %s+. Book a slot soon!", formatScore(threshold, true)),
				IsDynamic:   true,
			}
			at := 1
			if len(steps) < at {
				at = len(steps)
			}
			steps = append(steps[:at], append([]TimelineStep{prep}, steps[at:]...)...)
		}
	}
	return steps
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
