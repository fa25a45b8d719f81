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

// AttendanceService records and reports exam presence.
type AttendanceService struct {
	exams              ExamStore
	attendance         AttendanceStore
	users              UserStore
	assignmentRequired bool
	clock              clock.Clock
	log                zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(exams ExamStore, attendance AttendanceStore, users UserStore, assignmentRequired bool, clk clock.Clock, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		exams:              exams,
		attendance:         attendance,
		users:              users,
		assignmentRequired: assignmentRequired,
		clock:              clk,
		log:                log.With().Str("component", "attendance_service").Logger(),
	}
}

// MarkPresent records the caller as present. Repeated calls return the
// original record unchanged.
func (s *AttendanceService) MarkPresent(ctx context.Context, p model.Principal, examID uuid.UUID) (*model.Attendance, error) {
	now := s.clock.Now()

	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrExamNotFound
		}
		metrics.ExamAccess.WithLabelValues("attendance", accessOutcome(err)).Inc()
		return nil, err
	}
	if s.assignmentRequired && !exam.IsAssigned(p.ID) {
		metrics.ExamAccess.WithLabelValues("attendance", accessOutcome(ErrNotAssigned)).Inc()
		return nil, ErrExamNotFound
	}
	if err := checkWindow(exam, now); err != nil {
		metrics.ExamAccess.WithLabelValues("attendance", accessOutcome(err)).Inc()
		return nil, err
	}
	metrics.ExamAccess.WithLabelValues("attendance", accessOutcome(nil)).Inc()

	return s.record(ctx, exam.ID, p.ID, now)
}

// record inserts or returns the presence record. Callers have already
// applied the access rules.
func (s *AttendanceService) record(ctx context.Context, examID, studentID uuid.UUID, now time.Time) (*model.Attendance, error) {
	a := &model.Attendance{
		ExamID:    examID,
		StudentID: studentID,
		Status:    model.AttendancePresent,
		MarkedAt:  now,
	}
	created, err := s.attendance.MarkAttendance(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}

	if created {
		metrics.AttendanceMarks.WithLabelValues("created").Inc()
		s.log.Info().
			Str("exam_id", examID.String()).
			Str("student_id", studentID.String()).
			Msg("Attendance marked")
	} else {
		metrics.AttendanceMarks.WithLabelValues("existing").Inc()
	}
	return a, nil
}

// recordQuietly marks attendance as a side effect of another operation.
// Failures are logged and never surface to the caller.
func (s *AttendanceService) recordQuietly(ctx context.Context, examID, studentID uuid.UUID, now time.Time) {
	if _, err := s.record(ctx, examID, studentID, now); err != nil {
		s.log.Warn().Err(err).
			Str("exam_id", examID.String()).
			Str("student_id", studentID.String()).
			Msg("Implicit attendance mark failed")
	}
}

// List returns the attendance rows of an exam.
func (s *AttendanceService) List(ctx context.Context, examID uuid.UUID) ([]model.AttendanceRow, error) {
	if _, err := s.getExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.attendance.ListAttendance(ctx, examID)
}

// Report splits the exam's students into present and absent. Absent is the
// assignment list minus everyone with a presence record.
func (s *AttendanceService) Report(ctx context.Context, examID uuid.UUID) (*model.AttendanceReport, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	rows, err := s.attendance.ListAttendance(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	report := &model.AttendanceReport{
		ExamID:  examID,
		Present: make([]model.RosterEntry, 0, len(rows)),
		Absent:  []model.RosterEntry{},
	}
	present := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		present[row.StudentID] = true
		markedAt := row.MarkedAt
		report.Present = append(report.Present, model.RosterEntry{
			StudentID: row.StudentID,
			Name:      row.StudentName,
			Email:     row.StudentEmail,
			MarkedAt:  &markedAt,
		})
	}

	var missing []uuid.UUID
	for _, id := range exam.AssignedTo {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return report, nil
	}

	users, err := s.users.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("get absent students: %w", err)
	}
	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range missing {
		u := byID[id]
		report.Absent = append(report.Absent, model.RosterEntry{
			StudentID: id,
			Name:      u.Name,
			Email:     u.Email,
		})
	}
	return report, nil
}

func (s *AttendanceService) getExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}
