package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// Storage ports. The pgx repositories and memstore.Store implement them;
// both report missing rows as repository.ErrNotFound and unique
// violations as repository.ErrDuplicate.

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsersByRole(ctx context.Context, role model.Role, limit, offset int) ([]model.User, int, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
}

// ExamStore persists exams and their assignment lists.
type ExamStore interface {
	CreateExam(ctx context.Context, e *model.Exam) error
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	UpdateExam(ctx context.Context, e *model.Exam) error
	ListExams(ctx context.Context, limit, offset int) ([]model.Exam, int, error)
	ListExamsForStudent(ctx context.Context, studentID uuid.UUID, assignedOnly bool) ([]model.Exam, error)
	ReplaceAssignments(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) error
	AddAssignments(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (int, error)
}

// ResultStore persists submissions. At most one result exists per exam and student.
type ResultStore interface {
	CreateResult(ctx context.Context, r *model.Result) error
	GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error)
	GetResultByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Result, error)
	ListPendingResults(ctx context.Context) ([]model.PendingResult, error)
	ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.StudentResult, error)
	SaveEvaluation(ctx context.Context, r *model.Result, onlyPending bool) error
}

// AttendanceStore persists presence records. At most one exists per exam and student.
type AttendanceStore interface {
	MarkAttendance(ctx context.Context, a *model.Attendance) (created bool, err error)
	ListAttendance(ctx context.Context, examID uuid.UUID) ([]model.AttendanceRow, error)
}
