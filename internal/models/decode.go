// internal/models/decode.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Catalog and profile documents are written by other systems. Numbers that do
// not parse decode as absent, and deadline dates may be date-only.

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// lenientFloat accepts a JSON number or a numeric string.
func lenientFloat(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func lenientTime(raw json.RawMessage) (time.Time, bool) {
	if isNull(raw) {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseScores decodes a test-score object, dropping entries that are not
// numbers. Keys are lower-cased. Anything but an object is an error.
func ParseScores(raw json.RawMessage) (map[string]float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("scores: %w", err)
	}
	out := make(map[string]float64, len(entries))
	for k, v := range entries {
		if f := lenientFloat(v); f != nil {
			out[strings.ToLower(strings.TrimSpace(k))] = *f
		}
	}
	return out, nil
}

// lookupScore finds a test by name regardless of case.
func lookupScore(scores map[string]float64, test string) (float64, bool) {
	if v, ok := scores[test]; ok {
		return v, true
	}
	for k, v := range scores {
		if strings.EqualFold(k, test) {
			return v, true
		}
	}
	return 0, false
}

func (d *Deadline) UnmarshalJSON(data []byte) error {
	var raw struct {
		Term string          `json:"term"`
		Year json.RawMessage `json:"year"`
		Date json.RawMessage `json:"deadlineDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, ok := lenientTime(raw.Date)
	if !ok {
		return fmt.Errorf("deadline %q: unparseable deadlineDate %s", raw.Term, string(raw.Date))
	}
	d.Term = raw.Term
	d.Date = date
	d.Year = 0
	if y := lenientFloat(raw.Year); y != nil {
		d.Year = int(*y)
	}
	return nil
}

func (s *TemplateStep) UnmarshalJSON(data []byte) error {
	var raw struct {
		StepName     string          `json:"stepName"`
		Description  string          `json:"description"`
		DeadlineDate json.RawMessage `json:"deadlineDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.StepName = raw.StepName
	s.Description = raw.Description
	s.DeadlineDate = nil
	if t, ok := lenientTime(raw.DeadlineDate); ok {
		s.DeadlineDate = &t
	}
	return nil
}

func (r *TuitionRange) UnmarshalJSON(data []byte) error {
	var raw struct {
		Min      json.RawMessage `json:"min"`
		Max      json.RawMessage `json:"max"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Min = lenientFloat(raw.Min)
	r.Max = lenientFloat(raw.Max)
	r.Currency = raw.Currency
	return nil
}

type requirementFields RequirementModel

// UnmarshalJSON drops deadlines whose date cannot be read instead of
// rejecting the whole document.
func (r *RequirementModel) UnmarshalJSON(data []byte) error {
	var raw struct {
		requirementFields
		MinGPA               json.RawMessage `json:"minGPA"`
		TestScoreThresholds  json.RawMessage `json:"testScoreThresholds"`
		ApplicationDeadlines json.RawMessage `json:"applicationDeadlines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	thresholds, err := ParseScores(raw.TestScoreThresholds)
	if err != nil {
		return err
	}

	*r = RequirementModel(raw.requirementFields)
	r.MinGPA = lenientFloat(raw.MinGPA)
	r.TestScoreThresholds = thresholds
	r.ApplicationDeadlines = nil

	var deadlines []json.RawMessage
	if !isNull(raw.ApplicationDeadlines) {
		if err := json.Unmarshal(raw.ApplicationDeadlines, &deadlines); err != nil {
			return fmt.Errorf("applicationDeadlines: %w", err)
		}
	}
	for _, item := range deadlines {
		var d Deadline
		if err := json.Unmarshal(item, &d); err == nil {
			r.ApplicationDeadlines = append(r.ApplicationDeadlines, d)
		}
	}
	return nil
}

func (a *Academics) UnmarshalJSON(data []byte) error {
	var raw struct {
		GPA json.RawMessage `json:"gpa"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.GPA = lenientFloat(raw.GPA)
	return nil
}

func (b *Budget) UnmarshalJSON(data []byte) error {
	var raw struct {
		MaxTuition json.RawMessage `json:"maxTuition"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.MaxTuition = lenientFloat(raw.MaxTuition)
	return nil
}

type profileFields StudentProfile

func (s *StudentProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		profileFields
		TestScores json.RawMessage `json:"testScores"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	scores, err := ParseScores(raw.TestScores)
	if err != nil {
		return err
	}
	*s = StudentProfile(raw.profileFields)
	s.TestScores = scores
	return nil
}
