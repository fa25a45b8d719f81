package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

const multipartOverhead = 64 << 10

// MediaHandler handles answer-sheet uploads.
type MediaHandler struct {
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadAnswer godoc
// POST /api/v1/student/upload-answer/:examId/:questionId
// Accepts a PDF, JPEG or PNG in the multipart field "file" and returns the
// reference to include in the answer's file_uploads.
func (h *MediaHandler) UploadAnswer(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	examID, ok := parseID(c, "examId")
	if !ok {
		return
	}
	questionID, ok := parseID(c, "questionId")
	if !ok {
		return
	}

	// Room for the multipart envelope around the file itself.
	limit := h.mediaService.MaxUploadBytes() + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	ref, err := h.mediaService.SaveAnswerSheet(c.Request.Context(), p, examID, questionID, file, header.Size)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"file": ref})
}
