package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/metrics"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
)

// AccessGate decides whether a student may see an exam's content right now.
//
// Checks run in a fixed order against a single instant: existence,
// assignment, proctor code, then the time window. The first failing check
// decides the error.
type AccessGate struct {
	exams              ExamStore
	attendance         *AttendanceService
	assignmentRequired bool
	clock              clock.Clock
	log                zerolog.Logger
}

// NewAccessGate creates a new AccessGate.
func NewAccessGate(exams ExamStore, attendance *AttendanceService, assignmentRequired bool, clk clock.Clock, log zerolog.Logger) *AccessGate {
	return &AccessGate{
		exams:              exams,
		attendance:         attendance,
		assignmentRequired: assignmentRequired,
		clock:              clk,
		log:                log.With().Str("component", "access_gate").Logger(),
	}
}

// Open returns the student view of the exam and marks the student present.
func (g *AccessGate) Open(ctx context.Context, p model.Principal, examID uuid.UUID, code string) (*model.ExamView, error) {
	now := g.clock.Now()

	exam, err := g.check(ctx, p, examID, code, now)
	metrics.ExamAccess.WithLabelValues("open", accessOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	g.attendance.recordQuietly(ctx, exam.ID, p.ID, now)

	view := exam.View()
	return &view, nil
}

// VerifyProctorCode runs the same checks as Open without returning content.
func (g *AccessGate) VerifyProctorCode(ctx context.Context, p model.Principal, examID uuid.UUID, code string) error {
	_, err := g.check(ctx, p, examID, code, g.clock.Now())
	metrics.ExamAccess.WithLabelValues("verify", accessOutcome(err)).Inc()
	return err
}

func (g *AccessGate) check(ctx context.Context, p model.Principal, examID uuid.UUID, code string, now time.Time) (*model.Exam, error) {
	exam, err := g.exams.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if g.assignmentRequired && !exam.IsAssigned(p.ID) {
		return nil, ErrNotAssigned
	}
	if err := checkProctorCode(exam, code); err != nil {
		return nil, err
	}
	if err := checkWindow(exam, now); err != nil {
		return nil, err
	}
	return exam, nil
}
