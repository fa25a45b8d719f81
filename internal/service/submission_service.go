package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/metrics"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
)

// Submission errors.
var (
	ErrInvalidAnswers   = errors.New("invalid answers")
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrQuestionNotFound = errors.New("question not found in exam")
	ErrUploadNotAllowed = errors.New("question does not accept file uploads")
)

// AnswerUploadPrefix is the reference prefix of every stored answer sheet.
const AnswerUploadPrefix = "/uploads/answers/"

// SubmissionService accepts the single submission of a student per exam.
type SubmissionService struct {
	exams              ExamStore
	results            ResultStore
	attendance         *AttendanceService
	assignmentRequired bool
	clock              clock.Clock
	log                zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(exams ExamStore, results ResultStore, attendance *AttendanceService, assignmentRequired bool, clk clock.Clock, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		exams:              exams,
		results:            results,
		attendance:         attendance,
		assignmentRequired: assignmentRequired,
		clock:              clk,
		log:                log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit stores the caller's answers as a pending result. A nil answers
// slice means the field was missing and is rejected.
func (s *SubmissionService) Submit(ctx context.Context, p model.Principal, examID uuid.UUID, answers []model.AnswerInput) (*model.ResultReceipt, error) {
	receipt, err := s.submit(ctx, p, examID, answers)
	metrics.Submissions.WithLabelValues(submissionOutcome(err)).Inc()
	return receipt, err
}

func (s *SubmissionService) submit(ctx context.Context, p model.Principal, examID uuid.UUID, answers []model.AnswerInput) (*model.ResultReceipt, error) {
	if answers == nil {
		return nil, fmt.Errorf("%w: answers must be a list", ErrInvalidAnswers)
	}

	now := s.clock.Now()
	exam, err := s.openExam(ctx, p, examID, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.results.GetResultByExamAndStudent(ctx, examID, p.ID); err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing result: %w", err)
	}

	stored, err := buildAnswers(exam, answers)
	if err != nil {
		return nil, err
	}

	res := &model.Result{
		ExamID:      examID,
		StudentID:   p.ID,
		Answers:     stored,
		Score:       0,
		TotalMarks:  len(exam.Questions),
		Status:      model.ResultStatusPending,
		SubmittedAt: now,
	}
	if err := s.results.CreateResult(ctx, res); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("create result: %w", err)
	}

	s.attendance.recordQuietly(ctx, examID, p.ID, now)

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("student_id", p.ID.String()).
		Str("result_id", res.ID.String()).
		Int("answers", len(stored)).
		Msg("Exam submitted")

	return &model.ResultReceipt{
		ResultID:    res.ID,
		Status:      res.Status,
		SubmittedAt: res.SubmittedAt,
	}, nil
}

// AuthorizeUpload applies the submission rules to an answer-sheet upload:
// the exam must be open to the caller, not yet submitted, and the question
// must accept files.
func (s *SubmissionService) AuthorizeUpload(ctx context.Context, p model.Principal, examID, questionID uuid.UUID) error {
	err := s.authorizeUpload(ctx, p, examID, questionID)
	metrics.ExamAccess.WithLabelValues("upload", accessOutcome(err)).Inc()
	return err
}

func (s *SubmissionService) authorizeUpload(ctx context.Context, p model.Principal, examID, questionID uuid.UUID) error {
	exam, err := s.openExam(ctx, p, examID, s.clock.Now())
	if err != nil {
		return err
	}

	if _, err := s.results.GetResultByExamAndStudent(ctx, examID, p.ID); err == nil {
		return ErrAlreadySubmitted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check existing result: %w", err)
	}

	q, ok := exam.FindQuestion(questionID)
	if !ok {
		return ErrQuestionNotFound
	}
	if !q.AllowFileUpload {
		return ErrUploadNotAllowed
	}
	return nil
}

// ListForStudent returns the caller's results. Scores stay hidden until
// the result is evaluated.
func (s *SubmissionService) ListForStudent(ctx context.Context, p model.Principal) ([]model.StudentResult, error) {
	results, err := s.results.ListResultsByStudent(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Status != model.ResultStatusEvaluated {
			results[i].Score = nil
		}
	}
	return results, nil
}

// openExam loads the exam and applies the assignment and window rules.
// An unassigned student sees the exam as missing.
func (s *SubmissionService) openExam(ctx context.Context, p model.Principal, examID uuid.UUID, now time.Time) (*model.Exam, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if s.assignmentRequired && !exam.IsAssigned(p.ID) {
		return nil, ErrExamNotFound
	}
	if err := checkWindow(exam, now); err != nil {
		return nil, err
	}
	return exam, nil
}

// buildAnswers validates answers against the exam's questions.
func buildAnswers(exam *model.Exam, inputs []model.AnswerInput) ([]model.Answer, error) {
	seen := make(map[uuid.UUID]bool, len(inputs))
	answers := make([]model.Answer, 0, len(inputs))

	for i, in := range inputs {
		q, ok := exam.FindQuestion(in.QuestionID)
		if !ok {
			return nil, fmt.Errorf("%w: answer %d references an unknown question", ErrInvalidAnswers, i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: answer %d repeats a question", ErrInvalidAnswers, i)
		}
		seen[q.ID] = true

		if in.WrittenAnswer != "" && !q.AllowWrittenAnswer {
			return nil, fmt.Errorf("%w: answer %d: question does not accept written answers", ErrInvalidAnswers, i)
		}
		if len(in.FileUploads) > 0 && !q.AllowFileUpload {
			return nil, fmt.Errorf("%w: answer %d: question does not accept file uploads", ErrInvalidAnswers, i)
		}

		files := make([]string, 0, len(in.FileUploads))
		for _, ref := range in.FileUploads {
			if !isAnswerUploadRef(ref) {
				return nil, fmt.Errorf("%w: answer %d has an invalid file reference", ErrInvalidAnswers, i)
			}
			files = append(files, ref)
		}

		answers = append(answers, model.Answer{
			QuestionID:    q.ID,
			WrittenAnswer: in.WrittenAnswer,
			FileUploads:   files,
		})
	}
	return answers, nil
}

// isAnswerUploadRef accepts only flat references produced by the upload endpoint.
func isAnswerUploadRef(ref string) bool {
	if !strings.HasPrefix(ref, AnswerUploadPrefix) || strings.Contains(ref, "..") {
		return false
	}
	name := strings.TrimPrefix(ref, AnswerUploadPrefix)
	return name != "" && path.Base(name) == name
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrAlreadySubmitted):
		return "duplicate"
	case errors.Is(err, ErrInvalidAnswers),
		errors.Is(err, ErrExamNotFound),
		errors.Is(err, ErrExamNotStarted),
		errors.Is(err, ErrExamExpired):
		return "rejected"
	default:
		return "error"
	}
}
