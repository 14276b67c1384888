// internal/models/progress.go
package models

import "time"

type ChecklistStatus string

const (
	ChecklistPending  ChecklistStatus = "Pending"
	ChecklistUploaded ChecklistStatus = "Uploaded"
	ChecklistVerified ChecklistStatus = "Verified"
)

func (s ChecklistStatus) Valid() bool {
	switch s {
	case ChecklistPending, ChecklistUploaded, ChecklistVerified:
		return true
	}
	return false
}

type TimelineStatus string

const (
	TimelinePending   TimelineStatus = "Pending"
	TimelineCompleted TimelineStatus = "Completed"
)

func (s TimelineStatus) Valid() bool {
	return s == TimelinePending || s == TimelineCompleted
}

type ApplicationStatus string

const (
	StatusNotStarted ApplicationStatus = "Not Started"
	StatusInProgress ApplicationStatus = "In Progress"
	StatusSubmitted  ApplicationStatus = "Submitted"
	StatusAccepted   ApplicationStatus = "Accepted"
	StatusRejected   ApplicationStatus = "Rejected"
	StatusWaitlisted ApplicationStatus = "Waitlisted"
)

var ApplicationStatuses = []ApplicationStatus{
	StatusNotStarted, StatusInProgress, StatusSubmitted,
	StatusAccepted, StatusRejected, StatusWaitlisted,
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ApplicationProgress is the per (student, university) record created on
// shortlist. Overrides are keyed by document / step name.
type ApplicationProgress struct {
	ID                 string                       `json:"id"`
	StudentID          string                       `json:"studentId"`
	UniversityID       string                       `json:"universityId"`
	FitScoreSnapshot   int                          `json:"fitScoreSnapshot"`
	ChecklistOverrides map[string]ChecklistOverride `json:"checklistOverrides,omitempty"`
	TimelineOverrides  map[string]TimelineOverride  `json:"timelineOverrides,omitempty"`
	ApplicationStatus  ApplicationStatus            `json:"applicationStatus"`
	Notes              string                       `json:"notes,omitempty"`
	CreatedAt          time.Time                    `json:"createdAt"`
	UpdatedAt          time.Time                    `json:"updatedAt"`
}

type ChecklistOverride struct {
	Status      ChecklistStatus `json:"status"`
	FileRef     string          `json:"fileRef,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

type TimelineOverride struct {
	Status        TimelineStatus `json:"status"`
	CompletedDate *time.Time     `json:"completedDate,omitempty"`
}

// Checklist looks up a checklist override; a nil record has none.
func (p *ApplicationProgress) Checklist(documentName string) (ChecklistOverride, bool) {
	if p == nil || p.ChecklistOverrides == nil {
		return ChecklistOverride{}, false
	}
	o, ok := p.ChecklistOverrides[documentName]
	return o, ok
}

func (p *ApplicationProgress) Timeline(stepName string) (TimelineOverride, bool) {
	if p == nil || p.TimelineOverrides == nil {
		return TimelineOverride{}, false
	}
	o, ok := p.TimelineOverrides[stepName]
	return o, ok
}
