package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType determines which of Options and CorrectAnswer are meaningful.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeMultiple  QuestionType = "multiple"
	QuestionTypeTrueFalse QuestionType = "truefalse"
	QuestionTypeShort     QuestionType = "short"
	QuestionTypeLong      QuestionType = "long"
)

// DefaultMaxMarks is the weight of a question authored without max_marks.
const DefaultMaxMarks = 10

// Question is a single exam question as stored, including the answer key.
//
// CorrectAnswer holds an option index (mcq), a set of indices (multiple),
// a boolean (truefalse) or a string (short, long).
type Question struct {
	ID                 uuid.UUID       `json:"id"`
	Text               string          `json:"text"`
	Type               QuestionType    `json:"type"`
	Options            []string        `json:"options,omitempty"`
	CorrectAnswer      json.RawMessage `json:"correct_answer,omitempty"`
	MaxMarks           float64         `json:"max_marks"`
	AllowWrittenAnswer bool            `json:"allow_written_answer"`
	AllowFileUpload    bool            `json:"allow_file_upload"`
}

// QuestionView is the student-facing projection of a Question.
// It has no answer key field.
type QuestionView struct {
	ID                 uuid.UUID    `json:"id"`
	Text               string       `json:"text"`
	Type               QuestionType `json:"type"`
	Options            []string     `json:"options,omitempty"`
	MaxMarks           float64      `json:"max_marks"`
	AllowWrittenAnswer bool         `json:"allow_written_answer"`
	AllowFileUpload    bool         `json:"allow_file_upload"`
}

// View projects q for students.
func (q Question) View() QuestionView {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionView{
		ID:                 q.ID,
		Text:               q.Text,
		Type:               q.Type,
		Options:            options,
		MaxMarks:           q.MaxMarks,
		AllowWrittenAnswer: q.AllowWrittenAnswer,
		AllowFileUpload:    q.AllowFileUpload,
	}
}

// QuestionInput is a question as authored by an admin.
// A nil ID gets a fresh one; an existing ID is kept so submitted answers stay linked.
type QuestionInput struct {
	ID                 *uuid.UUID      `json:"id"`
	Text               string          `json:"text" binding:"required,min=1,max=4000"`
	Type               QuestionType    `json:"type" binding:"required,oneof=mcq multiple truefalse short long"`
	Options            []string        `json:"options" binding:"omitempty,max=20,dive,required,max=1000"`
	CorrectAnswer      json.RawMessage `json:"correct_answer"`
	MaxMarks           *float64        `json:"max_marks" binding:"omitempty,gt=0,max=1000"`
	AllowWrittenAnswer *bool           `json:"allow_written_answer"`
	AllowFileUpload    *bool           `json:"allow_file_upload"`
}
