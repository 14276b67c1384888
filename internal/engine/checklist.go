// internal/engine/checklist.go
package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pathfinder-workers/internal/models"
)

const (
	DefaultResourceLinkBase = "/resources?search="

	EnglishProficiencyItem = "English Proficiency (IELTS/TOEFL)"

	descUniversityRequirement = "University Requirement"
	descScoreMet              = "Score meets requirement!"
	notAvailable              = "N/A"
)

// FallbackDocuments are used when nothing else lands on the checklist.
var FallbackDocuments = []string{
	"High School Transcripts",
	"Statement of Purpose",
	"Letters of Recommendation",
}

// gapTests get a "<TEST> Score Report" item whenever a threshold is declared.
var gapTests = []string{models.TestSAT, models.TestGRE}

type ChecklistItem struct {
	DocumentName string                 `json:"documentName"`
	Required     bool                   `json:"required"`
	Description  string                 `json:"description,omitempty"`
	ActionLink   string                 `json:"actionLink,omitempty"`
	Status       models.ChecklistStatus `json:"status"`
	FileRef      string                 `json:"fileRef,omitempty"`
	LastUpdated  *time.Time             `json:"lastUpdated,omitempty"`
}

type ChecklistOptions struct {
	// ResourceLinkBase prefixes the test name in action links.
	ResourceLinkBase string
}

// ScoreReportItem names the synthetic checklist entry for a test.
func ScoreReportItem(test string) string {
	return strings.ToUpper(test) + " Score Report"
}

// BuildChecklist derives the document checklist for one application and
// overlays the student's saved progress on it.
func BuildChecklist(student *models.StudentProfile, req *models.RequirementModel, progress *models.ApplicationProgress, opts ChecklistOptions) []ChecklistItem {
	return MergeChecklist(ChecklistTemplate(student, req, opts), progress)
}

// ChecklistTemplate is the checklist before any student overrides apply.
func ChecklistTemplate(student *models.StudentProfile, req *models.RequirementModel, opts ChecklistOptions) []ChecklistItem {
	base := opts.ResourceLinkBase
	if base == "" {
		base = DefaultResourceLinkBase
	}

	var items []ChecklistItem
	if req != nil {
		for _, doc := range req.RequiredDocuments {
			items = append(items, ChecklistItem{
				DocumentName: doc,
				Required:     true,
				Description:  descUniversityRequirement,
			})
		}
	}

	for _, test := range gapTests {
		threshold, ok := req.Threshold(test)
		if !ok {
			continue
		}
		item := ChecklistItem{DocumentName: ScoreReportItem(test), Required: true}
		score, has := student.Score(test)
		if has && score >= threshold {
			item.Status = models.ChecklistUploaded
			item.Description = descScoreMet
		} else {
			item.Description = fmt.Sprintf("Score Required: %s+ (Your Score: %s)",
				formatScore(threshold, true), formatScore(score, has))
			item.ActionLink = base + strings.ToUpper(test)
		}
		items = append(items, item)
	}

	if englishGap(student, req) {
		toefl, hasToefl := student.Score(models.TestTOEFL)
		ielts, hasIelts := student.Score(models.TestIELTS)
		items = append(items, ChecklistItem{
			DocumentName: EnglishProficiencyItem,
			Required:     true,
			Description: fmt.Sprintf("Required. (Your TOEFL: %s, IELTS: %s)",
				formatScore(toefl, hasToefl), formatScore(ielts, hasIelts)),
			ActionLink: base + "IELTS",
		})
	}

	if len(items) == 0 {
		for _, doc := range FallbackDocuments {
			items = append(items, ChecklistItem{DocumentName: doc, Required: true})
		}
	}
	return items
}

// englishGap reports whether an English requirement exists and the student
// meets neither test. A score against a test with no threshold counts as met.
func englishGap(student *models.StudentProfile, req *models.RequirementModel) bool {
	toeflMin, toeflReq := req.Threshold(models.TestTOEFL)
	ieltsMin, ieltsReq := req.Threshold(models.TestIELTS)
	if !toeflReq && !ieltsReq {
		return false
	}
	meets := func(test string, min float64) bool {
		score, ok := student.Score(test)
		return ok && score >= min
	}
	return !meets(models.TestTOEFL, toeflMin) && !meets(models.TestIELTS, ieltsMin)
}

func formatScore(v float64, ok bool) string {
	if !ok {
		return notAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
