// cmd/plan-cli/commands_test.go
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const studentJSON = `{
  "id": "stu-1",
  "academics": {"gpa": 3.8},
  "testScores": {"sat": 1450},
  "budget": {"maxTuition": 60000},
  "interests": {
    "desiredMajors": ["Computer Science"],
    "preferredDestinations": ["USA"],
    "campusPreferences": ["Urban"]
  }
}`

const universityJSON = `{
  "id": "uni-1",
  "name": "Metro Tech",
  "minGPA": 3.8,
  "testScoreThresholds": {"sat": 1400},
  "majorsOffered": ["Computer Science and Engineering"],
  "tuition": {"min": 56000, "max": 60000, "currency": "USD"},
  "country": "USA",
  "campusType": "Urban",
  "requiredDocuments": ["Transcript", "Essay"],
  "applicationDeadlines": [{"term": "Fall", "deadlineDate": "2026-02-01T00:00:00Z"}]
}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (map[string]interface{}, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), out.String())
	return decoded, nil
}

// ==========================
// Command Tests
// ==========================

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	student := writeFile(t, dir, "student.json", studentJSON)
	university := writeFile(t, dir, "university.json", universityJSON)

	out, err := run(t, "score", "--student", student, "--university", university)
	require.NoError(t, err)
	assert.EqualValues(t, 100, out["fitScore"])
	assert.Equal(t, "stu-1", out["studentId"])
	assert.Equal(t, "uni-1", out["universityId"])
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	student := writeFile(t, dir, "student.json", studentJSON)
	university := writeFile(t, dir, "university.json", universityJSON)
	progress := writeFile(t, dir, "progress.json", `{
  "fitScoreSnapshot": 88,
  "applicationStatus": "In Progress",
  "checklistOverrides": {"Essay": {"status": "Verified", "lastUpdated": "2026-01-05T00:00:00Z"}}
}`)

	out, err := run(t, "plan", "--student", student, "--university", university,
		"--progress", progress, "--now", "2026-01-10T00:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, true, out["shortlisted"])
	assert.EqualValues(t, 88, out["fitScoreSnapshot"])
	assert.Equal(t, "In Progress", out["applicationStatus"])

	var essay map[string]interface{}
	for _, item := range out["checklist"].([]interface{}) {
		entry := item.(map[string]interface{})
		if entry["documentName"] == "Essay" {
			essay = entry
		}
	}
	require.NotNil(t, essay)
	assert.Equal(t, "Verified", essay["status"])

	window := out["windowStatus"].(map[string]interface{})
	assert.Equal(t, "Apply for Fall", window["label"])
	assert.EqualValues(t, 22, window["daysLeft"])
}

func TestWindowCommand(t *testing.T) {
	dir := t.TempDir()
	university := writeFile(t, dir, "university.json", universityJSON)

	out, err := run(t, "window", "--university", university, "--now", "2026-03-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "Applications Closed", out["label"])
	assert.Equal(t, false, out["isOpen"])
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	university := writeFile(t, dir, "university.json", universityJSON)
	broken := writeFile(t, dir, "broken.json", `{"id":`)

	tests := []struct {
		name string
		args []string
	}{
		{"missing student", []string{"score", "--university", university}},
		{"missing university", []string{"window"}},
		{"bad now", []string{"window", "--university", university, "--now", "tomorrow"}},
		{"unparseable file", []string{"window", "--university", broken}},
		{"missing file", []string{"window", "--university", filepath.Join(dir, "nope.json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
