package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus moves one way: pending, then evaluated.
type ResultStatus string

const (
	ResultStatusPending   ResultStatus = "pending"
	ResultStatusEvaluated ResultStatus = "evaluated"
)

// Answer is a student's response to one question.
type Answer struct {
	QuestionID     uuid.UUID `json:"question_id"`
	WrittenAnswer  string    `json:"written_answer"`
	FileUploads    []string  `json:"file_uploads"`
	EvaluatorScore float64   `json:"evaluator_score"`
}

// Result is the single submission of a student for an exam.
type Result struct {
	ID          uuid.UUID    `json:"id"`
	ExamID      uuid.UUID    `json:"exam_id"`
	StudentID   uuid.UUID    `json:"student_id"`
	Answers     []Answer     `json:"answers"`
	Score       float64      `json:"score"`
	TotalMarks  int          `json:"total_marks"`
	Status      ResultStatus `json:"status"`
	EvaluatedBy *uuid.UUID   `json:"evaluated_by,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	EvaluatedAt *time.Time   `json:"evaluated_at,omitempty"`
}

// AnswerInput is one answer in a submission payload.
type AnswerInput struct {
	QuestionID    uuid.UUID `json:"question_id" binding:"required"`
	WrittenAnswer string    `json:"written_answer" binding:"max=20000"`
	FileUploads   []string  `json:"file_uploads" binding:"omitempty,max=10,dive,required,max=512"`
}

// SubmitRequest is the payload for submitting an exam. A missing answers
// field is rejected by the service, not by binding.
type SubmitRequest struct {
	Answers []AnswerInput `json:"answers" binding:"omitempty,dive"`
}

// ResultReceipt is returned to the student after a successful submission.
type ResultReceipt struct {
	ResultID    uuid.UUID    `json:"result_id"`
	Status      ResultStatus `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// PendingResult is a queue entry for evaluators.
type PendingResult struct {
	ID           uuid.UUID `json:"id"`
	ExamID       uuid.UUID `json:"exam_id"`
	ExamTitle    string    `json:"exam_title"`
	StudentID    uuid.UUID `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	TotalMarks   int       `json:"total_marks"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// EvaluationView is a result together with its full exam, answer key included.
type EvaluationView struct {
	Result *Result `json:"result"`
	Exam   *Exam   `json:"exam"`
}

// EvaluateRequest carries either per-answer scores or one total.
// Entries are decoded loosely so numeric strings can be coerced and
// anything else rejected with a precise error.
type EvaluateRequest struct {
	Scores     []any `json:"scores"`
	TotalScore any   `json:"total_score"`
}

// EvaluationReceipt is returned after scoring a result.
type EvaluationReceipt struct {
	ResultID    uuid.UUID    `json:"result_id"`
	Score       float64      `json:"score"`
	Status      ResultStatus `json:"status"`
	EvaluatedBy uuid.UUID    `json:"evaluated_by"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
}

// StudentResult is a student's own result. Score stays nil until evaluated.
type StudentResult struct {
	ResultID    uuid.UUID    `json:"result_id"`
	ExamID      uuid.UUID    `json:"exam_id"`
	ExamTitle   string       `json:"exam_title"`
	Status      ResultStatus `json:"status"`
	TotalMarks  int          `json:"total_marks"`
	Score       *float64     `json:"score"`
	SubmittedAt time.Time    `json:"submitted_at"`
	EvaluatedAt *time.Time   `json:"evaluated_at,omitempty"`
}
