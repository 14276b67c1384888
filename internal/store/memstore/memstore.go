// internal/store/memstore/memstore.go
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/models"

	"github.com/google/uuid"
)

// Store keeps students, universities, accounts and progress in memory. It
// backs the offline CLI and tests, and mirrors the error codes of the
// database-backed stores.
type Store struct {
	mu           sync.RWMutex
	students     map[string]models.StudentProfile
	universities map[string]models.RequirementModel
	accounts     map[string]models.Account
	progress     map[progressKey]*models.ApplicationProgress
	now          func() time.Time
}

type progressKey struct {
	studentID    string
	universityID string
}

func New() *Store {
	return &Store{
		students:     make(map[string]models.StudentProfile),
		universities: make(map[string]models.RequirementModel),
		accounts:     make(map[string]models.Account),
		progress:     make(map[progressKey]*models.ApplicationProgress),
		now:          time.Now,
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) PutStudent(p models.StudentProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[p.ID] = p
}

func (s *Store) PutUniversity(r models.RequirementModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.universities[r.UniversityID] = r
}

func (s *Store) PutAccount(a models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID()] = a
}

// PutProgress stores a record as-is, replacing any existing one.
func (s *Store) PutProgress(p models.ApplicationProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.progress[progressKey{p.StudentID, p.UniversityID}] = cloneProgress(&p)
}

func (s *Store) GetStudent(_ context.Context, studentID string) (*models.StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.students[studentID]
	if !ok {
		return nil, errors.NewStudentNotFoundError(studentID)
	}
	return &p, nil
}

func (s *Store) GetRequirements(_ context.Context, universityID string) (*models.RequirementModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.universities[universityID]
	if !ok {
		return nil, errors.NewUniversityNotFoundError(universityID)
	}
	return &r, nil
}

func (s *Store) GetRequirementsBatch(ctx context.Context, universityIDs []string) ([]*models.RequirementModel, error) {
	out := make([]*models.RequirementModel, 0, len(universityIDs))
	for _, id := range universityIDs {
		r, err := s.GetRequirements(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, actorID string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[actorID]
	if !ok {
		return models.Account{}, errors.NewAccountNotFoundError(actorID)
	}
	return a, nil
}

func (s *Store) Get(_ context.Context, studentID, universityID string) (*models.ApplicationProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[progressKey{studentID, universityID}]
	if !ok {
		return nil, errors.NewNotShortlistedError(studentID, universityID)
	}
	return cloneProgress(p), nil
}

func (s *Store) ListByStudent(_ context.Context, studentID string) ([]*models.ApplicationProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ApplicationProgress
	for k, p := range s.progress {
		if k.studentID == studentID {
			out = append(out, cloneProgress(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UniversityID < out[j].UniversityID
	})
	return out, nil
}

func (s *Store) Create(_ context.Context, p *models.ApplicationProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{p.StudentID, p.UniversityID}
	if _, exists := s.progress[key]; exists {
		return errors.NewAlreadyShortlistedError(p.StudentID, p.UniversityID)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ApplicationStatus == "" {
		p.ApplicationStatus = models.StatusNotStarted
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.progress[key] = cloneProgress(p)
	return nil
}

func (s *Store) Delete(_ context.Context, studentID, universityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{studentID, universityID}
	if _, ok := s.progress[key]; !ok {
		return errors.NewNotShortlistedError(studentID, universityID)
	}
	delete(s.progress, key)
	return nil
}

func (s *Store) UpsertChecklistItem(_ context.Context, progressID, documentName string, o models.ChecklistOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.byID(progressID)
	if p == nil {
		return errors.NewProgressWriteFailedError("upsert_checklist", errUnknownProgress(progressID))
	}
	if p.ChecklistOverrides == nil {
		p.ChecklistOverrides = make(map[string]models.ChecklistOverride)
	}
	if o.FileRef == "" {
		o.FileRef = p.ChecklistOverrides[documentName].FileRef
	}
	p.ChecklistOverrides[documentName] = o
	return nil
}

func (s *Store) UpsertTimelineItem(_ context.Context, progressID, stepName string, o models.TimelineOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.byID(progressID)
	if p == nil {
		return errors.NewProgressWriteFailedError("upsert_timeline", errUnknownProgress(progressID))
	}
	if p.TimelineOverrides == nil {
		p.TimelineOverrides = make(map[string]models.TimelineOverride)
	}
	if o.CompletedDate != nil {
		t := *o.CompletedDate
		o.CompletedDate = &t
	}
	p.TimelineOverrides[stepName] = o
	return nil
}

func (s *Store) SetApplicationStatus(_ context.Context, studentID, universityID string, status models.ApplicationStatus, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressKey{studentID, universityID}]
	if !ok {
		return errors.NewNotShortlistedError(studentID, universityID)
	}
	p.ApplicationStatus = status
	if notes != nil {
		p.Notes = *notes
	}
	p.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) byID(progressID string) *models.ApplicationProgress {
	for _, p := range s.progress {
		if p.ID == progressID {
			return p
		}
	}
	return nil
}

type errUnknownProgress string

func (e errUnknownProgress) Error() string { return "progress record " + string(e) + " not found" }

func cloneProgress(p *models.ApplicationProgress) *models.ApplicationProgress {
	c := *p
	if p.ChecklistOverrides != nil {
		c.ChecklistOverrides = make(map[string]models.ChecklistOverride, len(p.ChecklistOverrides))
		for k, v := range p.ChecklistOverrides {
			c.ChecklistOverrides[k] = v
		}
	}
	if p.TimelineOverrides != nil {
		c.TimelineOverrides = make(map[string]models.TimelineOverride, len(p.TimelineOverrides))
		for k, v := range p.TimelineOverrides {
			c.TimelineOverrides[k] = v
		}
	}
	return &c
}
