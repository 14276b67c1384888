// internal/models/account.go
package models

type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
)

// StudentIdentity is the student-role payload of an Account.
type StudentIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// CounselorProfile is the counselor-role payload of an Account.
type CounselorProfile struct {
	ID               string   `json:"id"`
	Name             string   `json:"name,omitempty"`
	Specialization   string   `json:"specialization,omitempty"`
	AssignedStudents []string `json:"assignedStudents,omitempty"`
}

// Account is a closed union over the two roles. Exactly one payload is set,
// fixed by the constructor used when the account is loaded.
type Account struct {
	role      Role
	student   *StudentIdentity
	counselor *CounselorProfile
}

func NewStudentAccount(s StudentIdentity) Account {
	return Account{role: RoleStudent, student: &s}
}

func NewCounselorAccount(c CounselorProfile) Account {
	return Account{role: RoleCounselor, counselor: &c}
}

func (a Account) Role() Role { return a.role }

func (a Account) Student() (StudentIdentity, bool) {
	if a.role != RoleStudent || a.student == nil {
		return StudentIdentity{}, false
	}
	return *a.student, true
}

func (a Account) Counselor() (CounselorProfile, bool) {
	if a.role != RoleCounselor || a.counselor == nil {
		return CounselorProfile{}, false
	}
	return *a.counselor, true
}

// ID returns the identity of whichever payload the account carries.
func (a Account) ID() string {
	switch a.role {
	case RoleStudent:
		return a.student.ID
	case RoleCounselor:
		return a.counselor.ID
	}
	return ""
}

// CanWriteProgress reports whether the account may mutate the progress
// records of the given student: the student themself, or an assigned counselor.
func (a Account) CanWriteProgress(studentID string) bool {
	switch a.role {
	case RoleStudent:
		return a.student != nil && a.student.ID == studentID
	case RoleCounselor:
		if a.counselor == nil {
			return false
		}
		for _, id := range a.counselor.AssignedStudents {
			if id == studentID {
				return true
			}
		}
	}
	return false
}
