package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/metrics"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
)

// Evaluation errors.
var (
	ErrResultNotFound   = errors.New("result not found")
	ErrInvalidScores    = errors.New("invalid scores")
	ErrAlreadyEvaluated = errors.New("result already evaluated")
)

// EvaluationService lets evaluators score pending submissions.
type EvaluationService struct {
	results           ResultStore
	exams             ExamStore
	allowReevaluation bool
	clock             clock.Clock
	log               zerolog.Logger
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(results ResultStore, exams ExamStore, allowReevaluation bool, clk clock.Clock, log zerolog.Logger) *EvaluationService {
	return &EvaluationService{
		results:           results,
		exams:             exams,
		allowReevaluation: allowReevaluation,
		clock:             clk,
		log:               log.With().Str("component", "evaluation_service").Logger(),
	}
}

// ListPending returns the evaluation queue, oldest submission first.
func (s *EvaluationService) ListPending(ctx context.Context) ([]model.PendingResult, error) {
	return s.results.ListPendingResults(ctx)
}

// GetForEvaluation returns a result with its full exam, answer key included.
func (s *EvaluationService) GetForEvaluation(ctx context.Context, resultID uuid.UUID) (*model.EvaluationView, error) {
	res, err := s.getResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetExam(ctx, res.ExamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return &model.EvaluationView{Result: res, Exam: exam}, nil
}

// Evaluate scores a result. Either one score per answer or a single total
// must be given; every value must be a finite, non-negative number within
// the question's max marks.
func (s *EvaluationService) Evaluate(ctx context.Context, p model.Principal, resultID uuid.UUID, req model.EvaluateRequest) (*model.EvaluationReceipt, error) {
	receipt, err := s.evaluate(ctx, p, resultID, req)
	metrics.Evaluations.WithLabelValues(evaluationOutcome(err, receipt)).Inc()
	if err != nil {
		return nil, err
	}
	return receipt.EvaluationReceipt, nil
}

type evaluationResult struct {
	*model.EvaluationReceipt
	reevaluated bool
}

func (s *EvaluationService) evaluate(ctx context.Context, p model.Principal, resultID uuid.UUID, req model.EvaluateRequest) (*evaluationResult, error) {
	hasScores := req.Scores != nil
	hasTotal := req.TotalScore != nil
	if hasScores == hasTotal {
		return nil, fmt.Errorf("%w: provide exactly one of scores or total_score", ErrInvalidScores)
	}

	res, err := s.getResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	reevaluated := res.Status == model.ResultStatusEvaluated
	if reevaluated && !s.allowReevaluation {
		return nil, ErrAlreadyEvaluated
	}

	exam, err := s.exams.GetExam(ctx, res.ExamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	var total float64
	if hasScores {
		if len(req.Scores) != len(res.Answers) {
			return nil, fmt.Errorf("%w: got %d scores for %d answers", ErrInvalidScores, len(req.Scores), len(res.Answers))
		}
		scores := make([]float64, len(req.Scores))
		for i, raw := range req.Scores {
			score, err := parseScore(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: score %d: %v", ErrInvalidScores, i, err)
			}
			if q, ok := exam.FindQuestion(res.Answers[i].QuestionID); ok && score > q.MaxMarks {
				return nil, fmt.Errorf("%w: score %d exceeds max marks %g", ErrInvalidScores, i, q.MaxMarks)
			}
			scores[i] = score
		}
		for i, score := range scores {
			res.Answers[i].EvaluatorScore = score
			total += score
		}
	} else {
		score, err := parseScore(req.TotalScore)
		if err != nil {
			return nil, fmt.Errorf("%w: total_score: %v", ErrInvalidScores, err)
		}
		if maxTotal := maxMarks(exam); score > maxTotal {
			return nil, fmt.Errorf("%w: total_score exceeds max marks %g", ErrInvalidScores, maxTotal)
		}
		total = score
	}

	now := s.clock.Now()
	evaluator := p.ID
	res.Score = math.Round(total*100) / 100
	res.Status = model.ResultStatusEvaluated
	res.EvaluatedBy = &evaluator
	res.EvaluatedAt = &now

	if err := s.results.SaveEvaluation(ctx, res, !s.allowReevaluation); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if !s.allowReevaluation {
				return nil, ErrAlreadyEvaluated
			}
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("save evaluation: %w", err)
	}

	s.log.Info().
		Str("result_id", res.ID.String()).
		Str("evaluated_by", evaluator.String()).
		Float64("score", res.Score).
		Bool("reevaluated", reevaluated).
		Msg("Result evaluated")

	return &evaluationResult{
		EvaluationReceipt: &model.EvaluationReceipt{
			ResultID:    res.ID,
			Score:       res.Score,
			Status:      res.Status,
			EvaluatedBy: evaluator,
			EvaluatedAt: now,
		},
		reevaluated: reevaluated,
	}, nil
}

func (s *EvaluationService) getResult(ctx context.Context, resultID uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// parseScore accepts JSON numbers and numeric strings.
func parseScore(raw any) (float64, error) {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, errors.New("not a number")
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.New("not a number")
		}
		v = f
	default:
		return 0, errors.New("not a number")
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	if v < 0 {
		return 0, errors.New("negative")
	}
	return v, nil
}

func maxMarks(exam *model.Exam) float64 {
	var sum float64
	for _, q := range exam.Questions {
		sum += q.MaxMarks
	}
	return sum
}

func evaluationOutcome(err error, res *evaluationResult) string {
	switch {
	case err == nil && res.reevaluated:
		return "reevaluated"
	case err == nil:
		return "evaluated"
	case errors.Is(err, ErrInvalidScores),
		errors.Is(err, ErrAlreadyEvaluated),
		errors.Is(err, ErrResultNotFound):
		return "rejected"
	default:
		return "error"
	}
}
