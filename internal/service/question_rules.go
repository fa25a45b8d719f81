package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
)

// ErrInvalidQuestions is wrapped with the index and reason of the first bad question.
var ErrInvalidQuestions = errors.New("invalid questions")

const minChoiceOptions = 2

// buildQuestions turns authored inputs into stored questions. IDs present in
// keep are preserved; any other supplied ID is rejected, and questions
// without an ID get a fresh one.
func buildQuestions(inputs []model.QuestionInput, keep map[uuid.UUID]bool) ([]model.Question, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", ErrInvalidQuestions)
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := buildQuestion(in)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrInvalidQuestions, i, err)
		}

		if in.ID != nil && *in.ID != uuid.Nil {
			if !keep[*in.ID] {
				return nil, fmt.Errorf("%w: question %d: unknown id %s", ErrInvalidQuestions, i, *in.ID)
			}
			q.ID = *in.ID
		} else {
			q.ID = uuid.New()
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: question %d: duplicate id %s", ErrInvalidQuestions, i, q.ID)
		}
		seen[q.ID] = true

		questions = append(questions, q)
	}
	return questions, nil
}

func buildQuestion(in model.QuestionInput) (model.Question, error) {
	q := model.Question{
		Text:               in.Text,
		Type:               in.Type,
		Options:            in.Options,
		MaxMarks:           model.DefaultMaxMarks,
		AllowWrittenAnswer: true,
		AllowFileUpload:    true,
	}
	if in.MaxMarks != nil {
		q.MaxMarks = *in.MaxMarks
	}
	if in.AllowWrittenAnswer != nil {
		q.AllowWrittenAnswer = *in.AllowWrittenAnswer
	}
	if in.AllowFileUpload != nil {
		q.AllowFileUpload = *in.AllowFileUpload
	}
	if !q.AllowWrittenAnswer && !q.AllowFileUpload {
		return q, errors.New("question must accept a written answer or a file upload")
	}

	answer := bytes.TrimSpace(in.CorrectAnswer)
	hasAnswer := len(answer) > 0 && !bytes.Equal(answer, []byte("null"))

	switch in.Type {
	case model.QuestionTypeMCQ:
		if len(in.Options) < minChoiceOptions {
			return q, fmt.Errorf("mcq needs at least %d options", minChoiceOptions)
		}
		if hasAnswer {
			var idx int
			if err := json.Unmarshal(answer, &idx); err != nil {
				return q, errors.New("mcq correct_answer must be an option index")
			}
			if idx < 0 || idx >= len(in.Options) {
				return q, errors.New("mcq correct_answer is out of range")
			}
		}
	case model.QuestionTypeMultiple:
		if len(in.Options) < minChoiceOptions {
			return q, fmt.Errorf("multiple needs at least %d options", minChoiceOptions)
		}
		if hasAnswer {
			var idxs []int
			if err := json.Unmarshal(answer, &idxs); err != nil {
				return q, errors.New("multiple correct_answer must be a list of option indices")
			}
			used := make(map[int]bool, len(idxs))
			for _, idx := range idxs {
				if idx < 0 || idx >= len(in.Options) || used[idx] {
					return q, errors.New("multiple correct_answer has an invalid or repeated index")
				}
				used[idx] = true
			}
		}
	case model.QuestionTypeTrueFalse:
		if n := len(in.Options); n != 0 && n != 2 {
			return q, errors.New("truefalse takes either no options or exactly two labels")
		}
		if hasAnswer {
			var b bool
			if err := json.Unmarshal(answer, &b); err != nil {
				return q, errors.New("truefalse correct_answer must be a boolean")
			}
		}
	case model.QuestionTypeShort, model.QuestionTypeLong:
		if len(in.Options) > 0 {
			return q, fmt.Errorf("%s takes no options", in.Type)
		}
		if hasAnswer {
			var s string
			if err := json.Unmarshal(answer, &s); err != nil {
				return q, fmt.Errorf("%s correct_answer must be a string", in.Type)
			}
		}
	default:
		return q, fmt.Errorf("unknown type %q", in.Type)
	}

	if hasAnswer {
		q.CorrectAnswer = json.RawMessage(append([]byte(nil), answer...))
	}
	return q, nil
}
