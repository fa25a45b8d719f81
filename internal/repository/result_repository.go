package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-proctor/internal/model"
)

const resultColumns = `id, exam_id, student_id, answers, score, total_marks, status,
	evaluated_by, submitted_at, evaluated_at`

// ResultRepository handles submission result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// CreateResult inserts a result. A second result for the same exam and
// student violates results_exam_student_key and yields ErrDuplicate.
func (r *ResultRepository) CreateResult(ctx context.Context, res *model.Result) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO results (exam_id, student_id, answers, score, total_marks, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		res.ExamID, res.StudentID, answers, res.Score, res.TotalMarks, res.Status, res.SubmittedAt,
	).Scan(&res.ID)
	return translate(err)
}

// GetResult retrieves a result by ID.
func (r *ResultRepository) GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

// GetResultByExamAndStudent retrieves the result of one student for one exam.
func (r *ResultRepository) GetResultByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID))
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

// ListPendingResults returns pending results oldest first.
func (r *ResultRepository) ListPendingResults(ctx context.Context) ([]model.PendingResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, e.title, r.student_id, u.name, u.email, r.total_marks, r.submitted_at
		 FROM results r
		 JOIN exams e ON e.id = r.exam_id
		 JOIN users u ON u.id = r.student_id
		 WHERE r.status = $1
		 ORDER BY r.submitted_at, r.id`, model.ResultStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := []model.PendingResult{}
	for rows.Next() {
		var p model.PendingResult
		if err := rows.Scan(&p.ID, &p.ExamID, &p.ExamTitle, &p.StudentID, &p.StudentName,
			&p.StudentEmail, &p.TotalMarks, &p.SubmittedAt); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// ListResultsByStudent returns a student's results newest first, score included.
func (r *ResultRepository) ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.StudentResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, e.title, r.status, r.total_marks, r.score, r.submitted_at, r.evaluated_at
		 FROM results r
		 JOIN exams e ON e.id = r.exam_id
		 WHERE r.student_id = $1
		 ORDER BY r.submitted_at DESC, r.id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.StudentResult{}
	for rows.Next() {
		var sr model.StudentResult
		var score float64
		if err := rows.Scan(&sr.ResultID, &sr.ExamID, &sr.ExamTitle, &sr.Status, &sr.TotalMarks,
			&score, &sr.SubmittedAt, &sr.EvaluatedAt); err != nil {
			return nil, err
		}
		sr.Score = &score
		results = append(results, sr)
	}
	return results, rows.Err()
}

// SaveEvaluation writes scores, status and evaluator of a result. With
// onlyPending set the update is skipped for an already evaluated row, and
// ErrNotFound is returned when nothing was updated.
func (r *ResultRepository) SaveEvaluation(ctx context.Context, res *model.Result, onlyPending bool) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	query := `UPDATE results
	          SET answers = $2, score = $3, status = $4, evaluated_by = $5, evaluated_at = $6
	          WHERE id = $1`
	args := []any{res.ID, answers, res.Score, res.Status, res.EvaluatedBy, res.EvaluatedAt}
	if onlyPending {
		query += ` AND status = $7`
		args = append(args, model.ResultStatusPending)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanResult(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	var answers []byte
	if err := row.Scan(&res.ID, &res.ExamID, &res.StudentID, &answers, &res.Score, &res.TotalMarks,
		&res.Status, &res.EvaluatedBy, &res.SubmittedAt, &res.EvaluatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of result %s: %w", res.ID, err)
	}
	return res, nil
}
