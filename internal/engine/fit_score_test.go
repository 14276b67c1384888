// internal/engine/fit_score_test.go
package engine

import (
	"math"
	"testing"

	"pathfinder-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func scenarioStudent() *models.StudentProfile {
	return &models.StudentProfile{
		ID:         "student-1",
		Academics:  models.Academics{GPA: models.Float(3.8)},
		TestScores: map[string]float64{models.TestSAT: 1450},
		Budget:     models.Budget{MaxTuition: models.Float(60000)},
		Interests: models.Interests{
			DesiredMajors:         []string{"Computer Science"},
			PreferredDestinations: []string{"USA"},
			CampusPreferences:     []models.CampusPreference{models.CampusUrban},
		},
	}
}

func scenarioUniversity() *models.RequirementModel {
	return &models.RequirementModel{
		UniversityID:        "uni-1",
		Name:                "Example Institute of Technology",
		MinGPA:              models.Float(3.8),
		TestScoreThresholds: map[string]float64{models.TestSAT: 1450},
		MajorsOffered:       []string{"Computer Science", "Mathematics"},
		Tuition:             models.TuitionRange{Min: models.Float(56000), Max: models.Float(60000), Currency: "USD"},
		Country:             "USA",
		City:                "Boston",
		CampusType:          models.CampusTypeUrban,
	}
}

// ==========================
// Fit Score Tests
// ==========================

func TestFitScore_Scenario(t *testing.T) {
	result := CalculateFitScore(scenarioStudent(), scenarioUniversity())

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 15.0, result.Breakdown.GPA)
	assert.Equal(t, 15.0, result.Breakdown.Major)
	assert.Equal(t, 30.0, result.Breakdown.Academic())
	assert.Equal(t, 25.0, result.Breakdown.Tests)
	assert.Equal(t, 1, result.Breakdown.TestsEvaluated)
	assert.Equal(t, 20.0, result.Breakdown.Financial)
	assert.Equal(t, 15.0, result.Breakdown.Location)
	assert.Equal(t, 10.0, result.Breakdown.Campus)
}

func TestFitScore_EmptyStudentScoresZero(t *testing.T) {
	assert.Equal(t, 0, FitScore(&models.StudentProfile{}, scenarioUniversity()))
	assert.Equal(t, 0, FitScore(nil, scenarioUniversity()))
	assert.Equal(t, 0, FitScore(scenarioStudent(), nil))
}

func TestFitScore_Deterministic(t *testing.T) {
	s, u := scenarioStudent(), scenarioUniversity()
	s.Academics.GPA = models.Float(3.1)
	first := FitScore(s, u)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FitScore(s, u))
	}
}

func TestFitScore_Categories(t *testing.T) {
	tests := []struct {
		name     string
		mutateS  func(*models.StudentProfile)
		mutateU  func(*models.RequirementModel)
		expected int
	}{
		{
			name:     "gpa below minimum scales linearly",
			mutateS:  func(s *models.StudentProfile) { s.Academics.GPA = models.Float(1.9) },
			expected: 93, // 7.5 + 15 + 25 + 20 + 15 + 10 = 92.5
		},
		{
			name:     "gpa above minimum capped",
			mutateS:  func(s *models.StudentProfile) { s.Academics.GPA = models.Float(4.0) },
			expected: 100,
		},
		{
			name:     "missing minimum gpa skips gpa points",
			mutateU:  func(u *models.RequirementModel) { u.MinGPA = nil },
			expected: 85,
		},
		{
			name:     "major substring match is case insensitive",
			mutateS:  func(s *models.StudentProfile) { s.Interests.DesiredMajors = []string{"computer"} },
			expected: 100,
		},
		{
			name:     "no major match",
			mutateS:  func(s *models.StudentProfile) { s.Interests.DesiredMajors = []string{"Medicine"} },
			expected: 85,
		},
		{
			name:     "failed sat earns no test points",
			mutateS:  func(s *models.StudentProfile) { s.TestScores[models.TestSAT] = 1200 },
			expected: 75,
		},
		{
			name: "half of evaluated tests passed",
			mutateS: func(s *models.StudentProfile) {
				s.TestScores[models.TestTOEFL] = 90
			},
			mutateU: func(u *models.RequirementModel) {
				u.TestScoreThresholds[models.TestTOEFL] = 100
			},
			expected: 88, // tests = 12.5
		},
		{
			name:     "tests without thresholds are not evaluated",
			mutateS:  func(s *models.StudentProfile) { s.TestScores[models.TestGRE] = 310 },
			expected: 100,
		},
		{
			name:     "tuition within stretch earns half",
			mutateS:  func(s *models.StudentProfile) { s.Budget.MaxTuition = models.Float(50000) },
			expected: 90,
		},
		{
			name:     "tuition beyond stretch earns nothing",
			mutateS:  func(s *models.StudentProfile) { s.Budget.MaxTuition = models.Float(40000) },
			expected: 80,
		},
		{
			name: "missing max tuition falls back to min",
			mutateU: func(u *models.RequirementModel) {
				u.Tuition.Min = models.Float(61000)
				u.Tuition.Max = nil
			},
			expected: 90,
		},
		{
			name:     "missing budget",
			mutateS:  func(s *models.StudentProfile) { s.Budget.MaxTuition = nil },
			expected: 80,
		},
		{
			name:     "destination matches city",
			mutateS:  func(s *models.StudentProfile) { s.Interests.PreferredDestinations = []string{"boston"} },
			expected: 100,
		},
		{
			name:     "destination mismatch",
			mutateS:  func(s *models.StudentProfile) { s.Interests.PreferredDestinations = []string{"Canada"} },
			expected: 85,
		},
		{
			name: "campus size preference never matches campus type",
			mutateS: func(s *models.StudentProfile) {
				s.Interests.CampusPreferences = []models.CampusPreference{models.CampusLarge}
			},
			expected: 90,
		},
		{
			name:     "missing campus type",
			mutateU:  func(u *models.RequirementModel) { u.CampusType = "" },
			expected: 90,
		},
		{
			name: "malformed numbers are treated as absent",
			mutateS: func(s *models.StudentProfile) {
				s.Academics.GPA = models.Float(math.NaN())
				s.Budget.MaxTuition = models.Float(-1)
				s.TestScores[models.TestSAT] = 0
			},
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, u := scenarioStudent(), scenarioUniversity()
			if tt.mutateS != nil {
				tt.mutateS(s)
			}
			if tt.mutateU != nil {
				tt.mutateU(u)
			}
			score := FitScore(s, u)
			assert.Equal(t, tt.expected, score)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		})
	}
}

func TestFitScore_FixedDenominator(t *testing.T) {
	s := scenarioStudent()
	s.TestScores = nil

	// A perfect showing elsewhere cannot make up for the missing test category.
	assert.Equal(t, 75, FitScore(s, scenarioUniversity()))
}

func TestFitScore_TestNamesIgnoreCase(t *testing.T) {
	s, u := scenarioStudent(), scenarioUniversity()
	s.TestScores = map[string]float64{"SAT": 1500}
	u.TestScoreThresholds = map[string]float64{"SAT": 1400}

	result := CalculateFitScore(s, u)
	assert.Equal(t, 1, result.Breakdown.TestsEvaluated)
	assert.Equal(t, 25.0, result.Breakdown.Tests)
}

func TestAnyContains(t *testing.T) {
	assert.True(t, anyContains([]string{"United States"}, []string{"states"}))
	assert.False(t, anyContains([]string{"United States"}, []string{""}))
	assert.False(t, anyContains([]string{""}, []string{"usa"}))
	assert.False(t, anyContains(nil, []string{"usa"}))
}
