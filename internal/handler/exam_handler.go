package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

// ExamHandler handles exam authoring and assignment for admins.
type ExamHandler struct {
	examService *service.ExamService
	userService *service.UserService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, userService *service.UserService) *ExamHandler {
	return &ExamHandler{examService: examService, userService: userService}
}

// CreateExam godoc
// POST /api/v1/admin/createexam
func (h *ExamHandler) CreateExam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PATCH /api/v1/admin/updateexam/:examId
// Only the exam's author may update it. Omitted fields are left unchanged.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), p, examID, req)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/admin/exams?page=1&per_page=10
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, perPage := pageParams(c)

	exams, pagination, err := h.examService.List(c.Request.Context(), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/admin/exam/:examId
// Returns the full exam including answer keys and proctor code.
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ListStudents godoc
// GET /api/v1/admin/students?page=1&per_page=10
func (h *ExamHandler) ListStudents(c *gin.Context) {
	page, perPage := pageParams(c)

	students, pagination, err := h.userService.ListStudents(c.Request.Context(), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// AssignExam godoc
// POST /api/v1/admin/assignexam/:examId
// Replaces the exam's assigned students.
func (h *ExamHandler) AssignExam(c *gin.Context) {
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	var req model.AssignStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Assign(c.Request.Context(), examID, req.StudentIDs)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam_id":     exam.ID,
		"assigned_to": exam.AssignedTo,
	})
}

// AddStudents godoc
// PATCH /api/v1/admin/addstudents/:examId
// Adds students to the exam; already-assigned ids are ignored.
func (h *ExamHandler) AddStudents(c *gin.Context) {
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	var req model.AssignStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, added, err := h.examService.AddStudents(c.Request.Context(), examID, req.StudentIDs)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam_id":     exam.ID,
		"added":       added,
		"assigned_to": exam.AssignedTo,
	})
}
