package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/response"
)

// Catalog errors.
var (
	ErrInvalidTimeWindow = errors.New("exam end time must be after start time")
	ErrNotExamOwner      = errors.New("not the owner of this exam")
)

// ExamService handles authoring and assignment of exams.
type ExamService struct {
	exams              ExamStore
	users              *UserService
	assignmentRequired bool
	clock              clock.Clock
	log                zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, users *UserService, assignmentRequired bool, clk clock.Clock, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:              exams,
		users:              users,
		assignmentRequired: assignmentRequired,
		clock:              clk,
		log:                log.With().Str("component", "exam_service").Logger(),
	}
}

// Create validates and stores a new exam owned by the caller.
func (s *ExamService) Create(ctx context.Context, p model.Principal, req model.CreateExamRequest) (*model.Exam, error) {
	if !req.ExamEndTime.After(req.ExamStartTime) {
		return nil, ErrInvalidTimeWindow
	}

	questions, err := buildQuestions(req.Questions, nil)
	if err != nil {
		return nil, err
	}

	assigned, err := s.users.ResolveStudents(ctx, req.AssignedTo)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		ExamStartTime:   req.ExamStartTime,
		ExamEndTime:     req.ExamEndTime,
		DurationMinutes: durationMinutes(req.ExamStartTime, req.ExamEndTime),
		ProctorCode:     req.ProctorCode,
		Questions:       questions,
		AssignedTo:      assigned,
		CreatedBy:       p.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.exams.CreateExam(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("created_by", p.ID.String()).
		Int("questions", len(exam.Questions)).
		Int("assigned", len(exam.AssignedTo)).
		Msg("Exam created")
	return exam, nil
}

// Update applies a partial update. Only the exam's creator may change it, and
// the merged window must still end after it starts.
func (s *ExamService) Update(ctx context.Context, p model.Principal, examID uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.CreatedBy != p.ID {
		return nil, ErrNotExamOwner
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.ExamStartTime != nil {
		exam.ExamStartTime = *req.ExamStartTime
	}
	if req.ExamEndTime != nil {
		exam.ExamEndTime = *req.ExamEndTime
	}
	if req.ProctorCode != nil {
		exam.ProctorCode = *req.ProctorCode
	}
	if !exam.ExamEndTime.After(exam.ExamStartTime) {
		return nil, ErrInvalidTimeWindow
	}
	exam.DurationMinutes = durationMinutes(exam.ExamStartTime, exam.ExamEndTime)

	if req.Questions != nil {
		keep := make(map[uuid.UUID]bool, len(exam.Questions))
		for _, q := range exam.Questions {
			keep[q.ID] = true
		}
		questions, err := buildQuestions(req.Questions, keep)
		if err != nil {
			return nil, err
		}
		exam.Questions = questions
	}

	exam.UpdatedAt = s.clock.Now()
	if err := s.exams.UpdateExam(ctx, exam); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Msg("Exam updated")
	return exam, nil
}

// Get returns the full exam, answer key included. For authors and evaluators only.
func (s *ExamService) Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// List returns exam summaries newest first.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.ExamSummary, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage)

	exams, total, err := s.exams.ListExams(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	summaries := make([]model.ExamSummary, len(exams))
	for i := range exams {
		summaries[i] = exams[i].Summary()
	}
	return summaries, response.NewPagination(page, perPage, total), nil
}

// Assign replaces the exam's assignment list.
func (s *ExamService) Assign(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (*model.Exam, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return nil, err
	}
	ids, err := s.users.ResolveStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	if err := s.exams.ReplaceAssignments(ctx, examID, ids); err != nil {
		return nil, fmt.Errorf("replace assignments: %w", err)
	}

	s.log.Info().Str("exam_id", examID.String()).Int("assigned", len(ids)).Msg("Exam assignment replaced")
	return s.Get(ctx, examID)
}

// AddStudents appends students to the assignment list, ignoring ones already present.
func (s *ExamService) AddStudents(ctx context.Context, examID uuid.UUID, studentIDs []uuid.UUID) (*model.Exam, int, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return nil, 0, err
	}
	ids, err := s.users.ResolveStudents(ctx, studentIDs)
	if err != nil {
		return nil, 0, err
	}
	added, err := s.exams.AddAssignments(ctx, examID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("add assignments: %w", err)
	}

	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, 0, err
	}
	s.log.Info().Str("exam_id", examID.String()).Int("added", added).Msg("Students added to exam")
	return exam, added, nil
}

// ListForStudent returns the exams a student can still take: assigned ones
// (or all, when assignment is optional) whose window has not ended.
func (s *ExamService) ListForStudent(ctx context.Context, p model.Principal) ([]model.ExamSummary, error) {
	exams, err := s.exams.ListExamsForStudent(ctx, p.ID, s.assignmentRequired)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	summaries := []model.ExamSummary{}
	for i := range exams {
		if now.After(exams[i].ExamEndTime) {
			continue
		}
		summaries = append(summaries, exams[i].Summary())
	}
	return summaries, nil
}

func durationMinutes(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Minutes()))
}
