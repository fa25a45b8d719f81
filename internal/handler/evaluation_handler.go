package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

// EvaluationHandler serves the grading queue for admins and evaluators.
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(evaluationService *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

// ListPending godoc
// GET /api/v1/admin/pendingresults
func (h *EvaluationHandler) ListPending(c *gin.Context) {
	results, err := h.evaluationService.ListPending(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetForEvaluation godoc
// GET /api/v1/admin/evaluate/:resultId
// Returns the result alongside the full exam, answer keys included.
func (h *EvaluationHandler) GetForEvaluation(c *gin.Context) {
	resultID, ok := parseID(c, "resultId")
	if !ok {
		return
	}

	view, err := h.evaluationService.GetForEvaluation(c.Request.Context(), resultID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Evaluate godoc
// POST /api/v1/admin/evaluate/:resultId
// Body: { "scores": [4, 3, 2] } or { "total_score": 9 }
// scores holds one entry per submitted answer, in the order the answers were
// submitted. Unanswered questions get no entry.
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	resultID, ok := parseID(c, "resultId")
	if !ok {
		return
	}

	var req model.EvaluateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	receipt, err := h.evaluationService.Evaluate(c.Request.Context(), p, resultID, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, receipt)
}
