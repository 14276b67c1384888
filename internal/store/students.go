// internal/store/students.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/metrics"
	"pathfinder-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const studentCachePrefix = "student:profile:"

// StudentStore reads student profiles from PostgreSQL with a Redis
// read-through cache. The cache is optional. Profiles are owned by another
// system, so cached entries expire only by TTL.
type StudentStore struct {
	db     *sql.DB
	cache  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewStudentStore(db *sql.DB, cache redis.Cmdable, ttl time.Duration, log logger.Logger) *StudentStore {
	return &StudentStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "student-store"}),
	}
}

func StudentCacheKey(studentID string) string {
	return studentCachePrefix + studentID
}

// GetStudent returns the profile or STUDENT_NOT_FOUND.
func (s *StudentStore) GetStudent(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	if profile := s.fromCache(ctx, studentID); profile != nil {
		return profile, nil
	}

	profile, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, profile)
	return profile, nil
}

func (s *StudentStore) load(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var (
		p          models.StudentProfile
		gpa        sql.NullFloat64
		maxTuition sql.NullFloat64
		scores     []byte
		interests  []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, phone, first_name, last_name, gpa, test_scores, max_tuition, interests
		FROM students
		WHERE id = $1`, studentID).Scan(
		&p.ID, &p.Email, &p.Phone, &p.FirstName, &p.LastName,
		&gpa, &scores, &maxTuition, &interests,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewStudentNotFoundError(studentID)
	}
	if err != nil {
		return nil, queryError("student_profile", err)
	}

	if gpa.Valid {
		p.Academics.GPA = models.Float(gpa.Float64)
	}
	if maxTuition.Valid {
		p.Budget.MaxTuition = models.Float(maxTuition.Float64)
	}
	if p.TestScores, err = models.ParseScores(scores); err != nil {
		return nil, malformedError("student", studentID, fmt.Errorf("test_scores: %w", err))
	}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.Interests); err != nil {
			return nil, malformedError("student", studentID, fmt.Errorf("interests: %w", err))
		}
	}
	return &p, nil
}

func (s *StudentStore) fromCache(ctx context.Context, studentID string) *models.StudentProfile {
	if s.cache == nil {
		return nil
	}

	val, err := s.cache.Get(ctx, StudentCacheKey(studentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("profile cache read failed", map[string]interface{}{
				"studentId": studentID,
				"error":     err.Error(),
			})
		}
		return nil
	}

	var p models.StudentProfile
	if err := json.Unmarshal(val, &p); err != nil {
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		return nil
	}
	metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
	return &p
}

func (s *StudentStore) toCache(ctx context.Context, p *models.StudentProfile) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, StudentCacheKey(p.ID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{
			"studentId": p.ID,
			"error":     err.Error(),
		})
	}
}
