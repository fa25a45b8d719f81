package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/stemsi/exstem-proctor/internal/model"
)

// Access errors shared by the gate, submission and attendance.
var (
	ErrExamNotFound       = errors.New("exam not found")
	ErrNotAssigned        = errors.New("student is not assigned to this exam")
	ErrInvalidProctorCode = errors.New("invalid proctor code")
	ErrExamNotStarted     = errors.New("exam has not started")
	ErrExamExpired        = errors.New("exam has expired")
)

// checkWindow reports whether now lies inside [start, end]. Both bounds are inclusive.
func checkWindow(e *model.Exam, now time.Time) error {
	if now.Before(e.ExamStartTime) {
		return ErrExamNotStarted
	}
	if now.After(e.ExamEndTime) {
		return ErrExamExpired
	}
	return nil
}

// checkProctorCode compares the supplied code byte for byte.
// An exam without a code accepts anything.
func checkProctorCode(e *model.Exam, supplied string) error {
	if e.ProctorCode == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(e.ProctorCode), []byte(supplied)) != 1 {
		return ErrInvalidProctorCode
	}
	return nil
}

// accessOutcome is the metrics label for an access decision.
func accessOutcome(err error) string {
	switch {
	case err == nil:
		return "granted"
	case errors.Is(err, ErrExamNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAssigned):
		return "not_assigned"
	case errors.Is(err, ErrInvalidProctorCode):
		return "invalid_code"
	case errors.Is(err, ErrExamNotStarted):
		return "not_started"
	case errors.Is(err, ErrExamExpired):
		return "expired"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrUploadNotAllowed):
		return "rejected"
	default:
		return "error"
	}
}
