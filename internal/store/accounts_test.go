// internal/store/accounts_test.go
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStore_GetAccount_Student(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id, email FROM students`).WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("stu-1", "ada@example.com"))

	acct, err := NewAccountStore(db).GetAccount(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, acct.Role())
	assert.True(t, acct.CanWriteProgress("stu-1"))
	assert.False(t, acct.CanWriteProgress("stu-2"))
}

func TestAccountStore_GetAccount_Counselor(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id, email FROM students`).WithArgs("c-7").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT id, name, specialization FROM counselors`).WithArgs("c-7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "specialization"}).AddRow("c-7", "Grace", "STEM"))
	mock.ExpectQuery(`FROM counselor_assignments`).WithArgs("c-7").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("stu-1").AddRow("stu-3"))

	acct, err := NewAccountStore(db).GetAccount(context.Background(), "c-7")
	require.NoError(t, err)

	c, ok := acct.Counselor()
	require.True(t, ok)
	assert.Equal(t, "STEM", c.Specialization)
	assert.Equal(t, []string{"stu-1", "stu-3"}, c.AssignedStudents)
	assert.True(t, acct.CanWriteProgress("stu-3"))
	assert.False(t, acct.CanWriteProgress("stu-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountStore_GetAccount_Errors(t *testing.T) {
	t.Run("unknown actor", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM students`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`FROM counselors`).WillReturnError(sql.ErrNoRows)

		_, err := NewAccountStore(db).GetAccount(context.Background(), "ghost")
		assert.True(t, errors.HasCode(err, errors.ErrCodeAccountNotFound))
	})

	t.Run("database failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM students`).WillReturnError(stderrors.New("connection refused"))

		_, err := NewAccountStore(db).GetAccount(context.Background(), "stu-1")
		assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
	})
}
