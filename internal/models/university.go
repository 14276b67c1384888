// internal/models/university.go
package models

import "time"

type CampusType string

const (
	CampusTypeUrban    CampusType = "Urban"
	CampusTypeSuburban CampusType = "Suburban"
	CampusTypeRural    CampusType = "Rural"
)

// RequirementModel is the university-owned, read-only admission view.
type RequirementModel struct {
	UniversityID         string             `json:"id"`
	Name                 string             `json:"name,omitempty"`
	MinGPA               *float64           `json:"minGPA,omitempty"`
	TestScoreThresholds  map[string]float64 `json:"testScoreThresholds,omitempty"`
	MajorsOffered        []string           `json:"majorsOffered,omitempty"`
	Tuition              TuitionRange       `json:"tuition"`
	Country              string             `json:"country,omitempty"`
	City                 string             `json:"city,omitempty"`
	CampusType           CampusType         `json:"campusType,omitempty"`
	RequiredDocuments    []string           `json:"requiredDocuments,omitempty"`
	ApplicationDeadlines []Deadline         `json:"applicationDeadlines,omitempty"`
	TimelineTemplate     []TemplateStep     `json:"timelineTemplate,omitempty"`
}

type TuitionRange struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

type Deadline struct {
	Term string    `json:"term"`
	Year int       `json:"year,omitempty"`
	Date time.Time `json:"deadlineDate"`
}

type TemplateStep struct {
	StepName     string     `json:"stepName"`
	Description  string     `json:"description,omitempty"`
	DeadlineDate *time.Time `json:"deadlineDate,omitempty"`
}

// Threshold returns the minimum acceptable score for a test, if declared. The
// test name matches regardless of case.
func (r *RequirementModel) Threshold(test string) (float64, bool) {
	if r == nil || r.TestScoreThresholds == nil {
		return 0, false
	}
	v, ok := lookupScore(r.TestScoreThresholds, test)
	if !ok {
		return 0, false
	}
	return usable(&v)
}

func (r *RequirementModel) MinimumGPA() (float64, bool) {
	if r == nil {
		return 0, false
	}
	return usable(r.MinGPA)
}

// AverageTuition is the midpoint of the tuition range. A missing maximum
// collapses the range onto its minimum.
func (r *RequirementModel) AverageTuition() (float64, bool) {
	if r == nil {
		return 0, false
	}
	lo, ok := usable(r.Tuition.Min)
	if !ok {
		return 0, false
	}
	hi, ok := usable(r.Tuition.Max)
	if !ok {
		hi = lo
	}
	return (lo + hi) / 2, true
}
