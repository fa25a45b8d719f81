package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// AttendanceRepository handles attendance data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkAttendance inserts a present record unless one exists. On conflict the
// stored record is loaded into a and created is false.
func (r *AttendanceRepository) MarkAttendance(ctx context.Context, a *model.Attendance) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendance (exam_id, student_id, status, marked_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, marked_at`,
		a.ExamID, a.StudentID, a.Status, a.MarkedAt,
	).Scan(&a.ID, &a.MarkedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	// Already marked: return the original record.
	err = r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, status, marked_at
		 FROM attendance WHERE exam_id = $1 AND student_id = $2`,
		a.ExamID, a.StudentID,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.MarkedAt)
	if err != nil {
		return false, translate(err)
	}
	return false, nil
}

// ListAttendance returns the attendance rows of an exam in marking order.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, examID uuid.UUID) ([]model.AttendanceRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.status, a.marked_at, u.name, u.email
		 FROM attendance a
		 JOIN users u ON u.id = a.student_id
		 WHERE a.exam_id = $1
		 ORDER BY a.marked_at, a.id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.AttendanceRow{}
	for rows.Next() {
		var row model.AttendanceRow
		if err := rows.Scan(&row.ID, &row.ExamID, &row.StudentID, &row.Status, &row.MarkedAt,
			&row.StudentName, &row.StudentEmail); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
