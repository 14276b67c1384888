// internal/engine/checklist_test.go
package engine

import (
	"testing"
	"time"

	"pathfinder-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentNames(items []ChecklistItem) []string {
	names := make([]string, 0, len(items))
	for _, i := range items {
		names = append(names, i.DocumentName)
	}
	return names
}

// ==========================
// Checklist Tests
// ==========================

func TestBuildChecklist_Fallback(t *testing.T) {
	items := BuildChecklist(&models.StudentProfile{}, &models.RequirementModel{}, nil, ChecklistOptions{})

	assert.Equal(t, FallbackDocuments, documentNames(items))
	for _, item := range items {
		assert.True(t, item.Required)
		assert.Equal(t, models.ChecklistPending, item.Status)
	}
}

func TestBuildChecklist_RequiredDocumentsKeepOrder(t *testing.T) {
	req := &models.RequirementModel{RequiredDocuments: []string{"Transcript", "Passport", "Essay"}}

	items := BuildChecklist(nil, req, nil, ChecklistOptions{})

	assert.Equal(t, []string{"Transcript", "Passport", "Essay"}, documentNames(items))
	assert.Equal(t, "University Requirement", items[0].Description)
}

func TestBuildChecklist_TestGaps(t *testing.T) {
	req := &models.RequirementModel{
		RequiredDocuments:   []string{"Transcript"},
		TestScoreThresholds: map[string]float64{models.TestSAT: 1400, models.TestGRE: 320},
	}
	student := &models.StudentProfile{TestScores: map[string]float64{models.TestSAT: 1300}}

	items := BuildChecklist(student, req, nil, ChecklistOptions{})

	require.Len(t, items, 3)
	assert.Equal(t, []string{"Transcript", "SAT Score Report", "GRE Score Report"}, documentNames(items))

	assert.Equal(t, "Score Required: 1400+ (Your Score: 1300)", items[1].Description)
	assert.Equal(t, "/resources?search=SAT", items[1].ActionLink)
	assert.Equal(t, models.ChecklistPending, items[1].Status)

	assert.Equal(t, "Score Required: 320+ (Your Score: N/A)", items[2].Description)
	assert.Equal(t, "/resources?search=GRE", items[2].ActionLink)
}

func TestBuildChecklist_ResolvedTestsStayVisible(t *testing.T) {
	req := &models.RequirementModel{
		TestScoreThresholds: map[string]float64{models.TestSAT: 1400, models.TestGRE: 320},
	}
	student := &models.StudentProfile{TestScores: map[string]float64{models.TestSAT: 1450, models.TestGRE: 325}}

	items := BuildChecklist(student, req, nil, ChecklistOptions{})

	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, models.ChecklistUploaded, item.Status)
		assert.Equal(t, "Score meets requirement!", item.Description)
		assert.Empty(t, item.ActionLink)
	}
}

func TestBuildChecklist_EnglishProficiency(t *testing.T) {
	tests := []struct {
		name        string
		thresholds  map[string]float64
		scores      map[string]float64
		expectItem  bool
		description string
	}{
		{
			name:        "meets neither",
			thresholds:  map[string]float64{models.TestTOEFL: 100, models.TestIELTS: 7},
			scores:      map[string]float64{models.TestTOEFL: 90, models.TestIELTS: 6.5},
			expectItem:  true,
			description: "Required. (Your TOEFL: 90, IELTS: 6.5)",
		},
		{
			name:        "no scores",
			thresholds:  map[string]float64{models.TestIELTS: 7},
			expectItem:  true,
			description: "Required. (Your TOEFL: N/A, IELTS: N/A)",
		},
		{
			name:       "meets one is silent",
			thresholds: map[string]float64{models.TestTOEFL: 100, models.TestIELTS: 7},
			scores:     map[string]float64{models.TestTOEFL: 90, models.TestIELTS: 7.5},
		},
		{
			name:       "score for test without threshold counts",
			thresholds: map[string]float64{models.TestIELTS: 7},
			scores:     map[string]float64{models.TestTOEFL: 80},
		},
		{
			name:   "no english requirement",
			scores: map[string]float64{models.TestTOEFL: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.RequirementModel{
				RequiredDocuments:   []string{"Transcript"},
				TestScoreThresholds: tt.thresholds,
			}
			items := BuildChecklist(&models.StudentProfile{TestScores: tt.scores}, req, nil, ChecklistOptions{ResourceLinkBase: "https://learn.example.com/?q="})

			if !tt.expectItem {
				assert.Equal(t, []string{"Transcript"}, documentNames(items))
				return
			}
			require.Len(t, items, 2)
			assert.Equal(t, EnglishProficiencyItem, items[1].DocumentName)
			assert.Equal(t, tt.description, items[1].Description)
			assert.Equal(t, "https://learn.example.com/?q=IELTS", items[1].ActionLink)
		})
	}
}

func TestBuildChecklist_OverridesWin(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req := &models.RequirementModel{
		RequiredDocuments:   []string{"Transcript", "Essay"},
		TestScoreThresholds: map[string]float64{models.TestSAT: 1400},
	}
	student := &models.StudentProfile{TestScores: map[string]float64{models.TestSAT: 1500}}
	progress := &models.ApplicationProgress{
		ChecklistOverrides: map[string]models.ChecklistOverride{
			"Transcript":       {Status: models.ChecklistVerified, FileRef: "files/transcript.pdf", LastUpdated: updated},
			"SAT Score Report": {Status: models.ChecklistPending, LastUpdated: updated},
			"Unrelated":        {Status: models.ChecklistUploaded},
		},
	}

	items := BuildChecklist(student, req, progress, ChecklistOptions{})

	require.Len(t, items, 3)
	assert.Equal(t, models.ChecklistVerified, items[0].Status)
	assert.Equal(t, "files/transcript.pdf", items[0].FileRef)
	require.NotNil(t, items[0].LastUpdated)
	assert.True(t, updated.Equal(*items[0].LastUpdated))
	assert.Equal(t, models.ChecklistPending, items[1].Status)
	assert.Equal(t, models.ChecklistPending, items[2].Status)
}

func TestBuildChecklist_Idempotent(t *testing.T) {
	req := &models.RequirementModel{
		RequiredDocuments:   []string{"Transcript"},
		TestScoreThresholds: map[string]float64{models.TestSAT: 1400, models.TestIELTS: 7},
	}
	student := scenarioStudent()

	first := BuildChecklist(student, req, nil, ChecklistOptions{})
	second := BuildChecklist(student, req, nil, ChecklistOptions{})

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Transcript"}, req.RequiredDocuments)
}
