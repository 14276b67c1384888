// internal/service/planner/planner.go
package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/metrics"
	"pathfinder-workers/internal/engine"
	"pathfinder-workers/internal/models"
)

// StudentFetcher loads student profiles.
type StudentFetcher interface {
	GetStudent(ctx context.Context, studentID string) (*models.StudentProfile, error)
}

// RequirementFetcher loads university requirement models.
type RequirementFetcher interface {
	GetRequirements(ctx context.Context, universityID string) (*models.RequirementModel, error)
	GetRequirementsBatch(ctx context.Context, universityIDs []string) ([]*models.RequirementModel, error)
}

// ProgressRepository persists shortlisted applications. Get and Delete
// report NOT_SHORTLISTED for a missing record.
type ProgressRepository interface {
	Get(ctx context.Context, studentID, universityID string) (*models.ApplicationProgress, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.ApplicationProgress, error)
	Create(ctx context.Context, p *models.ApplicationProgress) error
	Delete(ctx context.Context, studentID, universityID string) error
	UpsertChecklistItem(ctx context.Context, progressID, documentName string, o models.ChecklistOverride) error
	UpsertTimelineItem(ctx context.Context, progressID, stepName string, o models.TimelineOverride) error
	SetApplicationStatus(ctx context.Context, studentID, universityID string, status models.ApplicationStatus, notes *string) error
}

// AccountFetcher resolves the actor performing a write.
type AccountFetcher interface {
	GetAccount(ctx context.Context, actorID string) (models.Account, error)
}

// Match is one entry of a ranked match list.
type Match struct {
	UniversityID string              `json:"universityId"`
	Name         string              `json:"name,omitempty"`
	FitScore     int                 `json:"fitScore"`
	Breakdown    engine.FitBreakdown `json:"breakdown"`
}

// ApplicationPlan is the merged view of one student's application to one
// university. Snapshot and status are present only once shortlisted.
type ApplicationPlan struct {
	StudentID         string                   `json:"studentId"`
	UniversityID      string                   `json:"universityId"`
	UniversityName    string                   `json:"universityName,omitempty"`
	Checklist         []engine.ChecklistItem   `json:"checklist"`
	Timeline          []engine.TimelineStep    `json:"timeline"`
	WindowStatus      engine.WindowStatus      `json:"windowStatus"`
	Shortlisted       bool                     `json:"shortlisted"`
	FitScoreSnapshot  *int                     `json:"fitScoreSnapshot,omitempty"`
	ApplicationStatus models.ApplicationStatus `json:"applicationStatus,omitempty"`
	Notes             string                   `json:"notes,omitempty"`
}

// ChecklistUpdate changes the status of one required document.
type ChecklistUpdate struct {
	DocumentName string                 `json:"documentName"`
	Status       models.ChecklistStatus `json:"status"`
	FileRef      string                 `json:"fileRef,omitempty"`
}

// TimelineUpdate changes the status of one timeline step.
type TimelineUpdate struct {
	StepName      string                `json:"stepName"`
	Status        models.TimelineStatus `json:"status"`
	CompletedDate *time.Time            `json:"completedDate,omitempty"`
}

// Planner binds the pure engine to its storage collaborators.
type Planner struct {
	students     StudentFetcher
	universities RequirementFetcher
	progress     ProgressRepository
	accounts     AccountFetcher
	config       config.PlannerConfig
	logger       logger.Logger
	now          func() time.Time
}

func New(
	cfg config.PlannerConfig,
	students StudentFetcher,
	universities RequirementFetcher,
	progress ProgressRepository,
	accounts AccountFetcher,
	log logger.Logger,
) *Planner {
	return &Planner{
		students:     students,
		universities: universities,
		progress:     progress,
		accounts:     accounts,
		config:       cfg,
		logger:       log.WithFields(map[string]interface{}{"component": "planner"}),
		now:          time.Now,
	}
}

// ==========================
// Read Operations
// ==========================

// ComputeFitScore returns the 0-100 fit of a student for a university.
func (p *Planner) ComputeFitScore(ctx context.Context, studentID, universityID string) (int, error) {
	result, err := p.ExplainFitScore(ctx, studentID, universityID)
	if err != nil {
		return 0, err
	}
	return result.Score, nil
}

// ExplainFitScore is ComputeFitScore with the per-category breakdown.
func (p *Planner) ExplainFitScore(ctx context.Context, studentID, universityID string) (result engine.FitResult, err error) {
	defer func() { metrics.ObserveOperation("fit_score", err) }()

	if err = requireIDs(studentID, universityID); err != nil {
		return engine.FitResult{}, err
	}
	student, err := p.students.GetStudent(ctx, studentID)
	if err != nil {
		return engine.FitResult{}, err
	}
	req, err := p.universities.GetRequirements(ctx, universityID)
	if err != nil {
		return engine.FitResult{}, err
	}

	result = engine.CalculateFitScore(student, req)
	metrics.FitScores.Observe(float64(result.Score))
	return result, nil
}

// ComputeRankedMatches scores every listed university and sorts by score,
// highest first. Duplicate ids are collapsed; equal scores keep input order.
func (p *Planner) ComputeRankedMatches(ctx context.Context, studentID string, universityIDs []string) (matches []Match, err error) {
	defer func() { metrics.ObserveOperation("rank", err) }()

	if err = requireIDs(studentID); err != nil {
		return nil, err
	}
	ids := dedupe(universityIDs)
	if err = requireIDs(ids...); err != nil {
		return nil, err
	}
	if limit := p.config.MaxRankedUniversities; limit > 0 && len(ids) > limit {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("at most %d universities can be ranked at once, got %d", limit, len(ids)))
	}
	if len(ids) == 0 {
		return []Match{}, nil
	}

	student, err := p.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	reqs, err := p.universities.GetRequirementsBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	matches = make([]Match, len(reqs))
	for i, req := range reqs {
		result := engine.CalculateFitScore(student, req)
		metrics.FitScores.Observe(float64(result.Score))
		matches[i] = Match{
			UniversityID: ids[i],
			Name:         req.Name,
			FitScore:     result.Score,
			Breakdown:    result.Breakdown,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].FitScore > matches[j].FitScore
	})
	return matches, nil
}

// GetApplicationPlan builds the checklist, timeline and window for a student
// and university, merged with any recorded progress.
func (p *Planner) GetApplicationPlan(ctx context.Context, studentID, universityID string, now time.Time) (plan *ApplicationPlan, err error) {
	defer func() { metrics.ObserveOperation("plan", err) }()

	if err = requireIDs(studentID, universityID); err != nil {
		return nil, err
	}
	student, err := p.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	req, err := p.universities.GetRequirements(ctx, universityID)
	if err != nil {
		return nil, err
	}
	progress, err := p.loadProgress(ctx, studentID, universityID)
	if err != nil {
		return nil, err
	}

	plan = &ApplicationPlan{
		StudentID:      studentID,
		UniversityID:   universityID,
		UniversityName: req.Name,
		Checklist:      engine.BuildChecklist(student, req, progress, p.checklistOptions()),
		Timeline:       engine.BuildTimeline(req, student, progress, now),
		WindowStatus:   engine.ResolveWindowWithThreshold(req.ApplicationDeadlines, now, p.config.UrgencyThresholdDays),
	}
	if progress != nil {
		snapshot := progress.FitScoreSnapshot
		plan.Shortlisted = true
		plan.FitScoreSnapshot = &snapshot
		plan.ApplicationStatus = progress.ApplicationStatus
		plan.Notes = progress.Notes
	}
	return plan, nil
}

// ResolveWindow reports the application window of a university.
func (p *Planner) ResolveWindow(ctx context.Context, universityID string, now time.Time) (engine.WindowStatus, error) {
	if err := requireIDs(universityID); err != nil {
		return engine.WindowStatus{}, err
	}
	req, err := p.universities.GetRequirements(ctx, universityID)
	if err != nil {
		return engine.WindowStatus{}, err
	}
	return engine.ResolveWindowWithThreshold(req.ApplicationDeadlines, now, p.config.UrgencyThresholdDays), nil
}

// ListShortlist returns the student's shortlisted applications.
func (p *Planner) ListShortlist(ctx context.Context, studentID string) ([]*models.ApplicationProgress, error) {
	if err := requireIDs(studentID); err != nil {
		return nil, err
	}
	return p.progress.ListByStudent(ctx, studentID)
}

// ==========================
// Write Operations
// ==========================

// Shortlist creates the progress record with a snapshot of the current fit.
func (p *Planner) Shortlist(ctx context.Context, actorID, studentID, universityID, notes string) (record *models.ApplicationProgress, err error) {
	defer func() { metrics.ObserveOperation("shortlist", err) }()

	if err = p.authorize(ctx, actorID, studentID, universityID); err != nil {
		return nil, err
	}
	score, err := p.ComputeFitScore(ctx, studentID, universityID)
	if err != nil {
		return nil, err
	}

	record = &models.ApplicationProgress{
		StudentID:         studentID,
		UniversityID:      universityID,
		FitScoreSnapshot:  score,
		ApplicationStatus: models.StatusNotStarted,
		Notes:             strings.TrimSpace(notes),
	}
	if err = p.progress.Create(ctx, record); err != nil {
		return nil, err
	}

	p.logger.Info("university shortlisted", map[string]interface{}{
		"actorId":      actorID,
		"studentId":    studentID,
		"universityId": universityID,
		"fitScore":     score,
	})
	return record, nil
}

// RemoveShortlist deletes the progress record and all its overrides.
func (p *Planner) RemoveShortlist(ctx context.Context, actorID, studentID, universityID string) (err error) {
	defer func() { metrics.ObserveOperation("remove_shortlist", err) }()

	if err = p.authorize(ctx, actorID, studentID, universityID); err != nil {
		return err
	}
	if err = p.progress.Delete(ctx, studentID, universityID); err != nil {
		return err
	}

	p.logger.Info("university removed from shortlist", map[string]interface{}{
		"actorId":      actorID,
		"studentId":    studentID,
		"universityId": universityID,
	})
	return nil
}

// UpdateChecklistItem records the status of one document, stamping the
// update time.
func (p *Planner) UpdateChecklistItem(ctx context.Context, actorID, studentID, universityID string, update ChecklistUpdate) (override models.ChecklistOverride, err error) {
	defer func() { metrics.ObserveOperation("update_checklist", err) }()

	if strings.TrimSpace(update.DocumentName) == "" {
		return override, errors.NewInvalidInputError("documentName is required")
	}
	if !update.Status.Valid() {
		return override, errors.NewInvalidInputError(fmt.Sprintf("invalid checklist status %q", update.Status))
	}
	progress, err := p.writableProgress(ctx, actorID, studentID, universityID)
	if err != nil {
		return override, err
	}

	override = models.ChecklistOverride{
		Status:      update.Status,
		FileRef:     update.FileRef,
		LastUpdated: p.now().UTC(),
	}
	if err = p.progress.UpsertChecklistItem(ctx, progress.ID, update.DocumentName, override); err != nil {
		return models.ChecklistOverride{}, err
	}
	if override.FileRef == "" {
		if prev, ok := progress.Checklist(update.DocumentName); ok {
			override.FileRef = prev.FileRef
		}
	}

	p.logger.Info("checklist item updated", map[string]interface{}{
		"progressId": progress.ID,
		"document":   update.DocumentName,
		"status":     string(update.Status),
	})
	return override, nil
}

// UpdateTimelineStep records the status of one step. Completing a step without
// a date stamps it with the current time; reopening clears the date.
func (p *Planner) UpdateTimelineStep(ctx context.Context, actorID, studentID, universityID string, update TimelineUpdate) (override models.TimelineOverride, err error) {
	defer func() { metrics.ObserveOperation("update_timeline", err) }()

	if strings.TrimSpace(update.StepName) == "" {
		return override, errors.NewInvalidInputError("stepName is required")
	}
	if !update.Status.Valid() {
		return override, errors.NewInvalidInputError(fmt.Sprintf("invalid timeline status %q", update.Status))
	}
	progress, err := p.writableProgress(ctx, actorID, studentID, universityID)
	if err != nil {
		return override, err
	}

	override = models.TimelineOverride{Status: update.Status}
	if update.Status == models.TimelineCompleted {
		completed := p.now().UTC()
		if update.CompletedDate != nil {
			completed = update.CompletedDate.UTC()
		}
		override.CompletedDate = &completed
	}
	if err = p.progress.UpsertTimelineItem(ctx, progress.ID, update.StepName, override); err != nil {
		return models.TimelineOverride{}, err
	}

	p.logger.Info("timeline step updated", map[string]interface{}{
		"progressId": progress.ID,
		"step":       update.StepName,
		"status":     string(update.Status),
	})
	return override, nil
}

// SetApplicationStatus moves the application through its lifecycle. Nil notes
// keep the stored notes.
func (p *Planner) SetApplicationStatus(ctx context.Context, actorID, studentID, universityID string, status models.ApplicationStatus, notes *string) (err error) {
	defer func() { metrics.ObserveOperation("set_status", err) }()

	if !status.Valid() {
		return errors.NewInvalidInputError(fmt.Sprintf("invalid application status %q", status))
	}
	if err = p.authorize(ctx, actorID, studentID, universityID); err != nil {
		return err
	}
	if err = p.progress.SetApplicationStatus(ctx, studentID, universityID, status, notes); err != nil {
		return err
	}

	p.logger.Info("application status updated", map[string]interface{}{
		"actorId":      actorID,
		"studentId":    studentID,
		"universityId": universityID,
		"status":       string(status),
	})
	return nil
}

// ==========================
// Helpers
// ==========================

func (p *Planner) checklistOptions() engine.ChecklistOptions {
	return engine.ChecklistOptions{ResourceLinkBase: p.config.ResourceLinkBase}
}

// loadProgress treats a missing record as no progress.
func (p *Planner) loadProgress(ctx context.Context, studentID, universityID string) (*models.ApplicationProgress, error) {
	progress, err := p.progress.Get(ctx, studentID, universityID)
	if errors.HasCode(err, errors.ErrCodeNotShortlisted) {
		return nil, nil
	}
	return progress, err
}

func (p *Planner) writableProgress(ctx context.Context, actorID, studentID, universityID string) (*models.ApplicationProgress, error) {
	if err := p.authorize(ctx, actorID, studentID, universityID); err != nil {
		return nil, err
	}
	return p.progress.Get(ctx, studentID, universityID)
}

// authorize allows the student themself or a counselor assigned to them.
func (p *Planner) authorize(ctx context.Context, actorID, studentID, universityID string) error {
	if err := requireIDs(actorID, studentID, universityID); err != nil {
		return err
	}
	account, err := p.accounts.GetAccount(ctx, actorID)
	if errors.HasCode(err, errors.ErrCodeAccountNotFound) {
		return errors.NewPermissionDeniedError(actorID, studentID)
	}
	if err != nil {
		return err
	}
	if !account.CanWriteProgress(studentID) {
		p.logger.Warn("progress write denied", map[string]interface{}{
			"actorId":   actorID,
			"role":      string(account.Role()),
			"studentId": studentID,
		})
		return errors.NewPermissionDeniedError(actorID, studentID)
	}
	return nil
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return errors.NewInvalidInputError("identifier must not be blank")
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
