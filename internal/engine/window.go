// internal/engine/window.go
package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pathfinder-workers/internal/models"
)

const (
	UrgencyHigh   = "high"
	UrgencyNormal = "normal"

	// DefaultUrgencyThresholdDays: fewer days left than this is high urgency.
	DefaultUrgencyThresholdDays = 30

	LabelNotOpen = "Applications Not Open"
	LabelClosed  = "Applications Closed"

	dueDateLayout = "Jan 2, 2006"
)

type WindowStatus struct {
	Label    string           `json:"label"`
	Subtext  string           `json:"subtext"`
	Urgency  string           `json:"urgency,omitempty"`
	IsOpen   bool             `json:"isOpen"`
	DaysLeft int              `json:"daysLeft,omitempty"`
	Deadline *models.Deadline `json:"deadline,omitempty"`
}

// ResolveWindow classifies the application window with the default urgency
// threshold.
func ResolveWindow(deadlines []models.Deadline, now time.Time) WindowStatus {
	return ResolveWindowWithThreshold(deadlines, now, DefaultUrgencyThresholdDays)
}

// ResolveWindowWithThreshold picks the nearest future deadline, or reports the
// latest past one when all have passed.
func ResolveWindowWithThreshold(deadlines []models.Deadline, now time.Time, thresholdDays int) WindowStatus {
	if len(deadlines) == 0 {
		return WindowStatus{
			Label:   LabelNotOpen,
			Subtext: "Check university website for upcoming dates.",
		}
	}
	if thresholdDays <= 0 {
		thresholdDays = DefaultUrgencyThresholdDays
	}

	var future []models.Deadline
	for _, d := range deadlines {
		if d.Date.After(now) {
			future = append(future, d)
		}
	}

	if len(future) > 0 {
		sort.SliceStable(future, func(i, j int) bool { return future[i].Date.Before(future[j].Date) })
		upcoming := future[0]
		days := int(math.Ceil(upcoming.Date.Sub(now).Hours() / 24))
		urgency := UrgencyNormal
		if days < thresholdDays {
			urgency = UrgencyHigh
		}
		return WindowStatus{
			Label:    fmt.Sprintf("Apply for %s", upcoming.Term),
			Subtext:  fmt.Sprintf("%d Days Left (Due: %s)", days, upcoming.Date.Format(dueDateLayout)),
			Urgency:  urgency,
			IsOpen:   true,
			DaysLeft: days,
			Deadline: &upcoming,
		}
	}

	latest := deadlines[0]
	for _, d := range deadlines[1:] {
		if d.Date.After(latest.Date) {
			latest = d
		}
	}
	return WindowStatus{
		Label:    LabelClosed,
		Subtext:  fmt.Sprintf("Last deadline was %s", latest.Date.Format(dueDateLayout)),
		Deadline: &latest,
	}
}
