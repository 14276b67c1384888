// internal/models/student.go
package models

import "math"

// Test score keys understood by the fit scorer and gap analyzer.
const (
	TestSAT   = "sat"
	TestTOEFL = "toefl"
	TestIELTS = "ielts"
	TestGRE   = "gre"
)

type CampusPreference string

const (
	CampusUrban    CampusPreference = "Urban"
	CampusSuburban CampusPreference = "Suburban"
	CampusRural    CampusPreference = "Rural"
	CampusLarge    CampusPreference = "Large"
	CampusMedium   CampusPreference = "Medium"
	CampusSmall    CampusPreference = "Small"
)

// StudentProfile is the student-owned view consumed by the engine. Every field
// is optional; a missing value means "no data", never zero.
type StudentProfile struct {
	ID         string             `json:"id"`
	Email      string             `json:"email,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	FirstName  string             `json:"firstName,omitempty"`
	LastName   string             `json:"lastName,omitempty"`
	Academics  Academics          `json:"academics"`
	TestScores map[string]float64 `json:"testScores,omitempty"`
	Budget     Budget             `json:"budget"`
	Interests  Interests          `json:"interests"`
}

type Academics struct {
	GPA *float64 `json:"gpa,omitempty"`
}

type Budget struct {
	MaxTuition *float64 `json:"maxTuition,omitempty"`
}

type Interests struct {
	DesiredMajors         []string           `json:"desiredMajors,omitempty"`
	PreferredDestinations []string           `json:"preferredDestinations,omitempty"`
	CampusPreferences     []CampusPreference `json:"campusPreferences,omitempty"`
}

// GPA returns the student's GPA when it is present and usable.
func (s *StudentProfile) GPA() (float64, bool) {
	if s == nil {
		return 0, false
	}
	return usable(s.Academics.GPA)
}

// MaxTuition returns the student's tuition ceiling when present.
func (s *StudentProfile) MaxTuition() (float64, bool) {
	if s == nil {
		return 0, false
	}
	return usable(s.Budget.MaxTuition)
}

// Score returns the student's score for a test. The test name matches
// regardless of case.
func (s *StudentProfile) Score(test string) (float64, bool) {
	if s == nil || s.TestScores == nil {
		return 0, false
	}
	v, ok := lookupScore(s.TestScores, test)
	if !ok {
		return 0, false
	}
	return usable(&v)
}

// usable treats nil, non-positive and non-finite numbers as absent.
func usable(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// Float is a helper for building optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
