// internal/store/accounts.go
package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/models"
)

// AccountStore resolves an actor id to a student or counselor account.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// GetAccount checks students first, then counselors with their assignments.
func (s *AccountStore) GetAccount(ctx context.Context, actorID string) (models.Account, error) {
	var student models.StudentIdentity
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email FROM students WHERE id = $1`, actorID,
	).Scan(&student.ID, &student.Email)
	switch {
	case err == nil:
		return models.NewStudentAccount(student), nil
	case !stderrors.Is(err, sql.ErrNoRows):
		return models.Account{}, queryError("account_student", err)
	}

	var counselor models.CounselorProfile
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, specialization FROM counselors WHERE id = $1`, actorID,
	).Scan(&counselor.ID, &counselor.Name, &counselor.Specialization)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Account{}, errors.NewAccountNotFoundError(actorID)
	}
	if err != nil {
		return models.Account{}, queryError("account_counselor", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id FROM counselor_assignments
		WHERE counselor_id = $1
		ORDER BY student_id`, actorID)
	if err != nil {
		return models.Account{}, queryError("counselor_assignments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return models.Account{}, queryError("counselor_assignments", err)
		}
		counselor.AssignedStudents = append(counselor.AssignedStudents, id)
	}
	if err := rows.Err(); err != nil {
		return models.Account{}, queryError("counselor_assignments", err)
	}
	return models.NewCounselorAccount(counselor), nil
}
