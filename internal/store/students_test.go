// internal/store/students_test.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const studentQuery = `SELECT id, email, phone, first_name, last_name, gpa, test_scores, max_tuition, interests\s+FROM students`

var studentColumns = []string{
	"id", "email", "phone", "first_name", "last_name",
	"gpa", "test_scores", "max_tuition", "interests",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func studentRow() *sqlmock.Rows {
	return sqlmock.NewRows(studentColumns).AddRow(
		"stu-1", "ada@example.com", "+15550100", "Ada", "Lovelace",
		3.8, []byte(`{"sat":1450,"toefl":105}`), 60000.0,
		[]byte(`{"desiredMajors":["Computer Science"],"preferredDestinations":["USA"],"campusPreferences":["Urban"]}`),
	)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestStudentStore_GetStudent_LoadsAndCaches(t *testing.T) {
	db, mock := newMockDB(t)
	mr, rdb := setupMiniRedis(t)

	mock.ExpectQuery(studentQuery).WithArgs("stu-1").WillReturnRows(studentRow())

	store := NewStudentStore(db, rdb, 10*time.Minute, logger.NewTestLogger(t))

	profile, err := store.GetStudent(context.Background(), "stu-1")
	require.NoError(t, err)

	gpa, ok := profile.GPA()
	assert.True(t, ok)
	assert.Equal(t, 3.8, gpa)
	sat, ok := profile.Score(models.TestSAT)
	assert.True(t, ok)
	assert.Equal(t, 1450.0, sat)
	budget, ok := profile.MaxTuition()
	assert.True(t, ok)
	assert.Equal(t, 60000.0, budget)
	assert.Equal(t, []string{"Computer Science"}, profile.Interests.DesiredMajors)
	assert.Equal(t, []models.CampusPreference{"Urban"}, profile.Interests.CampusPreferences)

	assert.True(t, mr.Exists(StudentCacheKey("stu-1")))
	assert.Equal(t, 10*time.Minute, mr.TTL(StudentCacheKey("stu-1")))

	// Second read is served from the cache; no further query is expected.
	cached, err := store.GetStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, profile, cached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentStore_GetStudent_NullColumnsAreAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(studentQuery).WithArgs("stu-2").WillReturnRows(
		sqlmock.NewRows(studentColumns).AddRow("stu-2", "", "", "", "", nil, []byte(`{}`), nil, []byte(`{}`)),
	)

	store := NewStudentStore(db, nil, time.Minute, logger.NewTestLogger(t))
	profile, err := store.GetStudent(context.Background(), "stu-2")
	require.NoError(t, err)

	_, ok := profile.GPA()
	assert.False(t, ok)
	_, ok = profile.MaxTuition()
	assert.False(t, ok)
	_, ok = profile.Score(models.TestSAT)
	assert.False(t, ok)
}

func TestStudentStore_GetStudent_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		wantCode errors.ErrorCode
	}{
		{"not found", sql.ErrNoRows, errors.ErrCodeStudentNotFound},
		{"query failure", stderrors.New("connection reset by peer"), errors.ErrCodeQueryExecutionFailed},
		{"deadline", context.DeadlineExceeded, errors.ErrCodeQueryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(studentQuery).WithArgs("stu-x").WillReturnError(tt.dbErr)

			store := NewStudentStore(db, nil, time.Minute, logger.NewTestLogger(t))
			profile, err := store.GetStudent(context.Background(), "stu-x")

			assert.Nil(t, profile)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestStudentStore_GetStudent_CacheReadFailureFallsBackToDatabase(t *testing.T) {
	db, mock := newMockDB(t)
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet(StudentCacheKey("stu-1")).SetErr(stderrors.New("connection refused"))
	mock.ExpectQuery(studentQuery).WithArgs("stu-1").WillReturnRows(studentRow())

	store := NewStudentStore(db, rdb, time.Minute, logger.NewTestLogger(t))
	profile, err := store.GetStudent(context.Background(), "stu-1")

	require.NoError(t, err)
	assert.Equal(t, "stu-1", profile.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentStore_GetStudent_CacheHitSkipsDatabase(t *testing.T) {
	db, mock := newMockDB(t)
	rdb, redisMock := redismock.NewClientMock()

	cached, _ := json.Marshal(models.StudentProfile{
		ID:        "stu-9",
		Academics: models.Academics{GPA: models.Float(3.1)},
	})
	redisMock.ExpectGet(StudentCacheKey("stu-9")).SetVal(string(cached))

	store := NewStudentStore(db, rdb, time.Minute, logger.NewTestLogger(t))
	profile, err := store.GetStudent(context.Background(), "stu-9")

	require.NoError(t, err)
	gpa, _ := profile.GPA()
	assert.Equal(t, 3.1, gpa)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// Malformed Row Tests
// ==========================

func TestStudentStore_GetStudent_LenientScores(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(studentQuery).WithArgs("stu-3").WillReturnRows(
		sqlmock.NewRows(studentColumns).AddRow(
			"stu-3", "", "", "", "", 3.2,
			[]byte(`{"SAT":"1500","toefl":"n/a"}`), nil, []byte(`{}`),
		),
	)

	store := NewStudentStore(db, nil, time.Minute, logger.NewTestLogger(t))
	profile, err := store.GetStudent(context.Background(), "stu-3")
	require.NoError(t, err)

	sat, ok := profile.Score(models.TestSAT)
	assert.True(t, ok)
	assert.Equal(t, 1500.0, sat)
	_, ok = profile.Score(models.TestTOEFL)
	assert.False(t, ok)
}

func TestStudentStore_GetStudent_MalformedRowIsNotRetryable(t *testing.T) {
	tests := []struct {
		name      string
		scores    []byte
		interests []byte
	}{
		{"scores not an object", []byte(`[1,2]`), []byte(`{}`)},
		{"interests wrong shape", []byte(`{"sat":1400}`), []byte(`{"desiredMajors":"CS"}`)},
		{"interests not json", []byte(`{}`), []byte(`not-json`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(studentQuery).WithArgs("stu-bad").WillReturnRows(
				sqlmock.NewRows(studentColumns).AddRow(
					"stu-bad", "", "", "", "", 3.0, tt.scores, nil, tt.interests,
				),
			)

			store := NewStudentStore(db, nil, time.Minute, logger.NewTestLogger(t))
			profile, err := store.GetStudent(context.Background(), "stu-bad")

			assert.Nil(t, profile)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "got %v", err)
			assert.False(t, errors.AsStandardError(err).Retryable)
		})
	}
}
