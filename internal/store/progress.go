// internal/store/progress.go
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// ProgressStore persists shortlisted applications and their checklist and
// timeline overrides. Override writes are single-row upserts.
type ProgressStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewProgressStore(db *sql.DB, log logger.Logger) *ProgressStore {
	return &ProgressStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "progress-store"}),
		now:    time.Now,
	}
}

const progressColumns = `id, student_id, university_id, fit_score_snapshot,
		application_status, notes, created_at, updated_at`

// Get loads the record with its overrides, or NOT_SHORTLISTED.
func (s *ProgressStore) Get(ctx context.Context, studentID, universityID string) (*models.ApplicationProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM application_progress
		WHERE student_id = $1 AND university_id = $2`, studentID, universityID)

	p, err := scanProgress(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotShortlistedError(studentID, universityID)
	}
	if err != nil {
		return nil, queryError("application_progress", err)
	}

	if err := s.loadChecklist(ctx, p); err != nil {
		return nil, err
	}
	if err := s.loadTimeline(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByStudent returns the student's shortlist, oldest first, without
// overrides.
func (s *ProgressStore) ListByStudent(ctx context.Context, studentID string) ([]*models.ApplicationProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+progressColumns+`
		FROM application_progress
		WHERE student_id = $1
		ORDER BY created_at, university_id`, studentID)
	if err != nil {
		return nil, queryError("application_progress_list", err)
	}
	defer rows.Close()

	var out []*models.ApplicationProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, queryError("application_progress_list", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("application_progress_list", err)
	}
	return out, nil
}

// Create inserts a new record, assigning an id and timestamps. A second
// shortlist of the same university is ALREADY_SHORTLISTED.
func (s *ProgressStore) Create(ctx context.Context, p *models.ApplicationProgress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ApplicationStatus == "" {
		p.ApplicationStatus = models.StatusNotStarted
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO application_progress (`+progressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.StudentID, p.UniversityID, p.FitScoreSnapshot,
		string(p.ApplicationStatus), p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return errors.NewAlreadyShortlistedError(p.StudentID, p.UniversityID)
		}
		return errors.NewProgressWriteFailedError("create", err)
	}

	s.logger.Info("application progress created", map[string]interface{}{
		"progressId":   p.ID,
		"studentId":    p.StudentID,
		"universityId": p.UniversityID,
	})
	return nil
}

// Delete removes the record and, by cascade, its overrides.
func (s *ProgressStore) Delete(ctx context.Context, studentID, universityID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM application_progress
		WHERE student_id = $1 AND university_id = $2`, studentID, universityID)
	if err != nil {
		return errors.NewProgressWriteFailedError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewProgressWriteFailedError("delete", err)
	}
	if n == 0 {
		return errors.NewNotShortlistedError(studentID, universityID)
	}
	return nil
}

// UpsertChecklistItem writes one document override. An empty file reference
// keeps the stored one.
func (s *ProgressStore) UpsertChecklistItem(ctx context.Context, progressID, documentName string, o models.ChecklistOverride) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklist_overrides (progress_id, document_name, status, file_ref, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (progress_id, document_name) DO UPDATE SET
			status       = EXCLUDED.status,
			file_ref     = COALESCE(NULLIF(EXCLUDED.file_ref, ''), checklist_overrides.file_ref),
			last_updated = EXCLUDED.last_updated`,
		progressID, documentName, string(o.Status), o.FileRef, o.LastUpdated,
	)
	if err != nil {
		return errors.NewProgressWriteFailedError("upsert_checklist", err)
	}
	return nil
}

// UpsertTimelineItem writes one step override.
func (s *ProgressStore) UpsertTimelineItem(ctx context.Context, progressID, stepName string, o models.TimelineOverride) error {
	var completed interface{}
	if o.CompletedDate != nil {
		completed = *o.CompletedDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timeline_overrides (progress_id, step_name, status, completed_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (progress_id, step_name) DO UPDATE SET
			status         = EXCLUDED.status,
			completed_date = EXCLUDED.completed_date`,
		progressID, stepName, string(o.Status), completed,
	)
	if err != nil {
		return errors.NewProgressWriteFailedError("upsert_timeline", err)
	}
	return nil
}

// SetApplicationStatus updates the status; nil notes leave notes untouched.
func (s *ProgressStore) SetApplicationStatus(ctx context.Context, studentID, universityID string, status models.ApplicationStatus, notes *string) error {
	var n interface{}
	if notes != nil {
		n = *notes
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE application_progress
		SET application_status = $3,
		    notes = COALESCE($4, notes),
		    updated_at = $5
		WHERE student_id = $1 AND university_id = $2`,
		studentID, universityID, string(status), n, s.now().UTC(),
	)
	if err != nil {
		return errors.NewProgressWriteFailedError("set_status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewProgressWriteFailedError("set_status", err)
	}
	if affected == 0 {
		return errors.NewNotShortlistedError(studentID, universityID)
	}
	return nil
}

func (s *ProgressStore) loadChecklist(ctx context.Context, p *models.ApplicationProgress) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_name, status, file_ref, last_updated
		FROM checklist_overrides
		WHERE progress_id = $1`, p.ID)
	if err != nil {
		return queryError("checklist_overrides", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, status, fileRef string
			updated               time.Time
		)
		if err := rows.Scan(&name, &status, &fileRef, &updated); err != nil {
			return queryError("checklist_overrides", err)
		}
		if p.ChecklistOverrides == nil {
			p.ChecklistOverrides = make(map[string]models.ChecklistOverride)
		}
		p.ChecklistOverrides[name] = models.ChecklistOverride{
			Status:      models.ChecklistStatus(status),
			FileRef:     fileRef,
			LastUpdated: updated,
		}
	}
	if err := rows.Err(); err != nil {
		return queryError("checklist_overrides", err)
	}
	return nil
}

func (s *ProgressStore) loadTimeline(ctx context.Context, p *models.ApplicationProgress) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_name, status, completed_date
		FROM timeline_overrides
		WHERE progress_id = $1`, p.ID)
	if err != nil {
		return queryError("timeline_overrides", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, status string
			completed    sql.NullTime
		)
		if err := rows.Scan(&name, &status, &completed); err != nil {
			return queryError("timeline_overrides", err)
		}
		o := models.TimelineOverride{Status: models.TimelineStatus(status)}
		if completed.Valid {
			t := completed.Time
			o.CompletedDate = &t
		}
		if p.TimelineOverrides == nil {
			p.TimelineOverrides = make(map[string]models.TimelineOverride)
		}
		p.TimelineOverrides[name] = o
	}
	if err := rows.Err(); err != nil {
		return queryError("timeline_overrides", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProgress(row rowScanner) (*models.ApplicationProgress, error) {
	var (
		p      models.ApplicationProgress
		status string
	)
	if err := row.Scan(&p.ID, &p.StudentID, &p.UniversityID, &p.FitScoreSnapshot,
		&status, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ApplicationStatus = models.ApplicationStatus(status)
	return &p, nil
}
