package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is an exam definition with its questions and assignment list.
type Exam struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	ExamStartTime   time.Time   `json:"exam_start_time"`
	ExamEndTime     time.Time   `json:"exam_end_time"`
	DurationMinutes int         `json:"duration_minutes"`
	ProctorCode     string      `json:"proctor_code,omitempty"`
	Questions       []Question  `json:"questions"`
	AssignedTo      []uuid.UUID `json:"assigned_to"`
	CreatedBy       uuid.UUID   `json:"created_by"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsAssigned reports whether studentID is on the assignment list.
func (e *Exam) IsAssigned(studentID uuid.UUID) bool {
	for _, id := range e.AssignedTo {
		if id == studentID {
			return true
		}
	}
	return false
}

// FindQuestion returns the question with the given ID.
func (e *Exam) FindQuestion(id uuid.UUID) (*Question, bool) {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i], true
		}
	}
	return nil, false
}

// Summary drops questions and the proctor code.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		ExamStartTime:   e.ExamStartTime,
		ExamEndTime:     e.ExamEndTime,
		DurationMinutes: e.DurationMinutes,
		QuestionCount:   len(e.Questions),
		AssignedCount:   len(e.AssignedTo),
		RequiresCode:    e.ProctorCode != "",
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

// View is the student-facing exam content.
func (e *Exam) View() ExamView {
	questions := make([]QuestionView, len(e.Questions))
	for i, q := range e.Questions {
		questions[i] = q.View()
	}
	return ExamView{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		ExamStartTime:   e.ExamStartTime,
		ExamEndTime:     e.ExamEndTime,
		DurationMinutes: e.DurationMinutes,
		Questions:       questions,
	}
}

// ExamSummary is an exam listing entry.
type ExamSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ExamStartTime   time.Time `json:"exam_start_time"`
	ExamEndTime     time.Time `json:"exam_end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	AssignedCount   int       `json:"assigned_count"`
	RequiresCode    bool      `json:"requires_proctor_code"`
	CreatedBy       uuid.UUID `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// ExamView is the exam as served to a student inside the window.
type ExamView struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	ExamStartTime   time.Time      `json:"exam_start_time"`
	ExamEndTime     time.Time      `json:"exam_end_time"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []QuestionView `json:"questions"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title         string          `json:"title" binding:"required,min=3,max=255"`
	Description   string          `json:"description" binding:"omitempty,max=5000"`
	ExamStartTime time.Time       `json:"exam_start_time" binding:"required"`
	ExamEndTime   time.Time       `json:"exam_end_time" binding:"required"`
	ProctorCode   string          `json:"proctor_code" binding:"omitempty,min=4,max=64"`
	Questions     []QuestionInput `json:"questions" binding:"required,min=1,dive"`
	AssignedTo    []uuid.UUID     `json:"assigned_to"`
}

// UpdateExamRequest holds the fields an admin may change. Nil means unchanged.
type UpdateExamRequest struct {
	Title         *string         `json:"title" binding:"omitempty,min=3,max=255"`
	Description   *string         `json:"description" binding:"omitempty,max=5000"`
	ExamStartTime *time.Time      `json:"exam_start_time"`
	ExamEndTime   *time.Time      `json:"exam_end_time"`
	ProctorCode   *string         `json:"proctor_code" binding:"omitempty,max=64"`
	Questions     []QuestionInput `json:"questions" binding:"omitempty,dive"`
}

// AssignStudentsRequest carries a set of student IDs.
type AssignStudentsRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids" binding:"required,max=5000"`
}

// VerifyProctorRequest is the payload for checking a proctor code.
type VerifyProctorRequest struct {
	ProctorCode string `json:"proctor_code" binding:"max=64"`
}
