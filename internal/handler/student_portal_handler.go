package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

// ProctorCodeHeader carries the proctor code on exam fetches.
const ProctorCodeHeader = "X-Proctor-Code"

// StudentPortalHandler handles the student-facing exam endpoints.
type StudentPortalHandler struct {
	examService       *service.ExamService
	gate              *service.AccessGate
	submissionService *service.SubmissionService
	attendanceService *service.AttendanceService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	examService *service.ExamService,
	gate *service.AccessGate,
	submissionService *service.SubmissionService,
	attendanceService *service.AttendanceService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		examService:       examService,
		gate:              gate,
		submissionService: submissionService,
		attendanceService: attendanceService,
	}
}

// ListExams godoc
// GET /api/v1/student/exams
// Lists exams assigned to the student that have not ended.
func (h *StudentPortalHandler) ListExams(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	exams, err := h.examService.ListForStudent(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// VerifyProctorCode godoc
// POST /api/v1/student/verify-proctor/:examId
func (h *StudentPortalHandler) VerifyProctorCode(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	var req model.VerifyProctorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.gate.VerifyProctorCode(c.Request.Context(), p, examID, req.ProctorCode); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verified": true})
}

// GetExam godoc
// GET /api/v1/student/exam/:examId
// Returns the exam without answer keys when the student may sit it now.
// Opening the exam marks the student present.
func (h *StudentPortalHandler) GetExam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	code := c.GetHeader(ProctorCodeHeader)
	if code == "" {
		code = c.Query("proctor_code")
	}

	view, err := h.gate.Open(c.Request.Context(), p, examID, code)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": view})
}

// SubmitExam godoc
// POST /api/v1/student/submit/:examId
// Body: { "answers": [{ "question_id", "written_answer", "file_uploads" }] }
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	receipt, err := h.submissionService.Submit(c.Request.Context(), p, examID, req.Answers)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, receipt)
}

// MarkAttendance godoc
// POST /api/v1/student/attendance/:examId
// Idempotent: repeated calls return the original record.
func (h *StudentPortalHandler) MarkAttendance(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	record, err := h.attendanceService.MarkPresent(c.Request.Context(), p, examID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": record})
}

// ListResults godoc
// GET /api/v1/student/results
// Scores stay hidden until the result is evaluated.
func (h *StudentPortalHandler) ListResults(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	results, err := h.submissionService.ListForStudent(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
