// internal/engine/fit_score.go
package engine

import (
	"math"
	"strings"

	"pathfinder-workers/internal/models"
)

// Category weights. They sum to MaxScore; the final score is always taken
// against this fixed total, so categories without data lower the ceiling.
const (
	AcademicWeight  = 30
	TestWeight      = 25
	FinancialWeight = 20
	LocationWeight  = 15
	CampusWeight    = 10

	MaxScore = AcademicWeight + TestWeight + FinancialWeight + LocationWeight + CampusWeight

	gpaPoints      = 15.0
	majorPoints    = 15.0
	testPassPoints = 5.0
	// budgetStretch is the tolerance over maxTuition that still earns half credit.
	budgetStretch = 1.2
)

// ScoredTests are the tests that contribute to the test category.
var ScoredTests = []string{models.TestSAT, models.TestTOEFL, models.TestIELTS, models.TestGRE}

// FitBreakdown holds the points earned per category.
type FitBreakdown struct {
	GPA            float64 `json:"gpa"`
	Major          float64 `json:"major"`
	Tests          float64 `json:"tests"`
	TestsEvaluated int     `json:"testsEvaluated"`
	Financial      float64 `json:"financial"`
	Location       float64 `json:"location"`
	Campus         float64 `json:"campus"`
}

func (b FitBreakdown) Academic() float64 { return b.GPA + b.Major }

func (b FitBreakdown) Total() float64 {
	return b.GPA + b.Major + b.Tests + b.Financial + b.Location + b.Campus
}

type FitResult struct {
	Score     int          `json:"score"`
	Breakdown FitBreakdown `json:"breakdown"`
}

// FitScore returns the 0-100 compatibility score between a student and a
// university.
func FitScore(student *models.StudentProfile, req *models.RequirementModel) int {
	return CalculateFitScore(student, req).Score
}

// CalculateFitScore scores every category and returns the rounded total along
// with the per-category points. Missing data earns nothing; it never errors.
func CalculateFitScore(student *models.StudentProfile, req *models.RequirementModel) FitResult {
	var b FitBreakdown
	if student == nil || req == nil {
		return FitResult{Breakdown: b}
	}

	if gpa, ok := student.GPA(); ok {
		if minGPA, ok := req.MinimumGPA(); ok {
			b.GPA = math.Min(gpa/minGPA, 1) * gpaPoints
		}
	}
	if anyContains(req.MajorsOffered, student.Interests.DesiredMajors) {
		b.Major = majorPoints
	}

	b.Tests, b.TestsEvaluated = scoreTests(student, req)
	b.Financial = scoreFinancial(student, req)

	if anyContains([]string{req.Country, req.City}, student.Interests.PreferredDestinations) {
		b.Location = LocationWeight
	}

	prefs := make([]string, 0, len(student.Interests.CampusPreferences))
	for _, p := range student.Interests.CampusPreferences {
		prefs = append(prefs, string(p))
	}
	if anyContains([]string{string(req.CampusType)}, prefs) {
		b.Campus = CampusWeight
	}

	score := int(math.Round(b.Total() / MaxScore * 100))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return FitResult{Score: score, Breakdown: b}
}

func scoreTests(student *models.StudentProfile, req *models.RequirementModel) (float64, int) {
	var raw float64
	var evaluated int
	for _, test := range ScoredTests {
		score, ok := student.Score(test)
		if !ok {
			continue
		}
		threshold, ok := req.Threshold(test)
		if !ok {
			continue
		}
		evaluated++
		if score >= threshold {
			raw += testPassPoints
		}
	}
	if evaluated == 0 {
		return 0, 0
	}
	return raw / float64(evaluated) * (TestWeight / testPassPoints), evaluated
}

func scoreFinancial(student *models.StudentProfile, req *models.RequirementModel) float64 {
	budget, ok := student.MaxTuition()
	if !ok {
		return 0
	}
	avg, ok := req.AverageTuition()
	if !ok {
		return 0
	}
	switch {
	case avg <= budget:
		return FinancialWeight
	case avg <= budget*budgetStretch:
		return FinancialWeight / 2
	}
	return 0
}

// anyContains reports whether any needle is a case-insensitive substring of
// any haystack. Blank values on either side never match.
func anyContains(haystacks, needles []string) bool {
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		for _, h := range haystacks {
			h = strings.ToLower(h)
			if h != "" && strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}
