package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// examColumns selects an exam row together with its assignment list.
const examColumns = `e.id, e.title, e.description, e.exam_start_time, e.exam_end_time,
	e.duration_minutes, e.proctor_code, e.questions, e.created_by, e.created_at, e.updated_at,
	COALESCE((SELECT array_agg(a.student_id ORDER BY a.student_id)
	          FROM exam_assignments a WHERE a.exam_id = e.id), '{}'::uuid[])`

// ExamRepository handles exam and assignment data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// CreateExam inserts the exam and its initial assignment list in one transaction.
func (r *ExamRepository) CreateExam(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO exams (title, description, exam_start_time, exam_end_time,
			                    duration_minutes, proctor_code, questions, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at, updated_at`,
			e.Title, e.Description, e.ExamStartTime, e.ExamEndTime,
			e.DurationMinutes, e.ProctorCode, questions, e.CreatedBy,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return err
		}
		_, err := insertAssignments(ctx, tx, e.ID, e.AssignedTo)
		return err
	})
}

// GetExam retrieves an exam with questions and assignment list.
func (r *ExamRepository) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams e WHERE e.id = $1`, id)
	e, err := scanExam(row)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// UpdateExam overwrites the mutable fields of an exam. Assignments are untouched.
func (r *ExamRepository) UpdateExam(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $2, description = $3, exam_start_time = $4, exam_end_time = $5,
		     duration_minutes = $6, proctor_code = $7, questions = $8, updated_at = $9
		 WHERE id = $1
		 RETURNING updated_at`,
		e.ID, e.Title, e.Description, e.ExamStartTime, e.ExamEndTime,
		e.DurationMinutes, e.ProctorCode, questions, e.UpdatedAt,
	).Scan(&e.UpdatedAt)
	return translate(err)
}

// ListExams retrieves exams newest first with pagination.
func (r *ExamRepository) ListExams(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams e
		 ORDER BY e.created_at DESC, e.id
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	exams, err := collectExams(rows)
	if err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// ListExamsForStudent retrieves exams ordered by start time. With assignedOnly
// set, only exams assigned to studentID are returned.
func (r *ExamRepository) ListExamsForStudent(ctx context.Context, studentID uuid.UUID, assignedOnly bool) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams e`
	var args []any
	if assignedOnly {
		query += ` WHERE EXISTS (SELECT 1 FROM exam_assignments a
		                         WHERE a.exam_id = e.id AND a.student_id = $1)`
		args = append(args, studentID)
	}
	query += ` ORDER BY e.exam_start_time, e.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// ReplaceAssignments sets the assignment list of an exam to exactly studentIDs.
func (r *ExamRepository) ReplaceAssignments(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM exam_assignments WHERE exam_id = $1`, examID); err != nil {
			return err
		}
		if _, err := insertAssignments(ctx, tx, examID, studentIDs); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE exams SET updated_at = NOW() WHERE id = $1`, examID)
		return err
	})
}

// AddAssignments appends studentIDs to the assignment list, skipping existing
// members. It returns how many students were newly assigned.
func (r *ExamRepository) AddAssignments(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (int, error) {
	return insertAssignments(ctx, r.pool, examID, studentIDs)
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertAssignments(ctx context.Context, db execer, examID uuid.UUID, studentIDs []uuid.UUID) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	tag, err := db.Exec(ctx,
		`INSERT INTO exam_assignments (exam_id, student_id)
		 SELECT $1, u.student_id FROM UNNEST($2::uuid[]) AS u (student_id)
		 ON CONFLICT (exam_id, student_id) DO NOTHING`,
		examID, studentIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	var questions []byte
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.ExamStartTime, &e.ExamEndTime,
		&e.DurationMinutes, &e.ProctorCode, &questions, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		&e.AssignedTo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of exam %s: %w", e.ID, err)
	}
	return e, nil
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}
