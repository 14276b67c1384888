// internal/engine/merge.go
package engine

import "pathfinder-workers/internal/models"

// MergeChecklist overlays checklist overrides by document name onto a copy of
// the template. Items without an override default to Pending unless the
// template already resolved them.
func MergeChecklist(template []ChecklistItem, progress *models.ApplicationProgress) []ChecklistItem {
	out := make([]ChecklistItem, len(template))
	for i, item := range template {
		if o, ok := progress.Checklist(item.DocumentName); ok {
			if o.Status != "" {
				item.Status = o.Status
			}
			if o.FileRef != "" {
				item.FileRef = o.FileRef
			}
			if !o.LastUpdated.IsZero() {
				ts := o.LastUpdated
				item.LastUpdated = &ts
			}
		}
		if item.Status == "" {
			item.Status = models.ChecklistPending
		}
		out[i] = item
	}
	return out
}

// MergeTimeline overlays timeline overrides by step name onto a copy of the
// template. Steps without an override are Pending.
func MergeTimeline(template []TimelineStep, progress *models.ApplicationProgress) []TimelineStep {
	out := make([]TimelineStep, len(template))
	for i, step := range template {
		if o, ok := progress.Timeline(step.StepName); ok {
			step.Status = o.Status
			step.CompletedDate = copyTime(o.CompletedDate)
		}
		if step.Status == "" {
			step.Status = models.TimelinePending
		}
		out[i] = step
	}
	return out
}
