package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

// AttendanceHandler serves attendance lists and reports to admins.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// ListAttendance godoc
// GET /api/v1/admin/attendance/:examId
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	rows, err := h.attendanceService.List(c.Request.Context(), examID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attendance": rows})
}

// Report godoc
// GET /api/v1/admin/attendancereport/:examId
// Splits the assigned roster into present and absent students.
func (h *AttendanceHandler) Report(c *gin.Context) {
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}

	report, err := h.attendanceService.Report(c.Request.Context(), examID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}
