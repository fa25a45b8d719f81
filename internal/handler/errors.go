package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// errorTable maps service errors to HTTP responses. Order matters only for
// errors that wrap one another.
var errorTable = []errorMapping{
	// Auth
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrTokenInvalid, http.StatusBadRequest, response.ErrTokenInvalid},
	{service.ErrTokenRevoked, http.StatusBadRequest, response.ErrTokenInvalid},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrUserNotFound, http.StatusNotFound, response.ErrNotFound},

	// Exams
	{service.ErrExamNotFound, http.StatusNotFound, response.ErrExamNotFound},
	{service.ErrNotAssigned, http.StatusForbidden, response.ErrNotAssigned},
	{service.ErrInvalidProctorCode, http.StatusForbidden, response.ErrInvalidProctorCode},
	{service.ErrExamNotStarted, http.StatusForbidden, response.ErrExamNotStarted},
	{service.ErrExamExpired, http.StatusForbidden, response.ErrExamExpired},
	{service.ErrNotExamOwner, http.StatusForbidden, response.ErrNotExamOwner},
	{service.ErrInvalidTimeWindow, http.StatusBadRequest, response.ErrInvalidTimeWindow},
	{service.ErrInvalidQuestions, http.StatusBadRequest, response.ErrInvalidQuestions},
	{service.ErrInvalidStudents, http.StatusBadRequest, response.ErrInvalidStudents},

	// Submissions and evaluation
	{service.ErrInvalidAnswers, http.StatusBadRequest, response.ErrInvalidAnswers},
	{service.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},
	{service.ErrQuestionNotFound, http.StatusNotFound, response.ErrQuestionNotFound},
	{service.ErrUploadNotAllowed, http.StatusBadRequest, response.ErrUploadNotAllowed},
	{service.ErrResultNotFound, http.StatusNotFound, response.ErrResultNotFound},
	{service.ErrInvalidScores, http.StatusBadRequest, response.ErrInvalidScores},
	{service.ErrAlreadyEvaluated, http.StatusConflict, response.ErrAlreadyEvaluated},

	// Media
	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},

	// Storage errors that escaped a service without translation.
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{repository.ErrDuplicate, http.StatusConflict, response.ErrConflict},

	{context.DeadlineExceeded, http.StatusServiceUnavailable, response.ErrTimeout},
}

// fail writes the mapped response for err. Unmapped errors are logged and
// reported as a generic 500 so internals never reach the client.
func fail(c *gin.Context, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}

	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("route", c.FullPath()).
		Msg("Unhandled error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// parseID reads a UUID path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// principal returns the authenticated caller, writing a 401 when absent.
func principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
	}
	return p, ok
}

// pageParams reads ?page= and ?per_page=; services clamp the values.
func pageParams(c *gin.Context) (int, int) {
	var q struct {
		Page    int `form:"page"`
		PerPage int `form:"per_page"`
	}
	_ = c.ShouldBindQuery(&q)
	return q.Page, q.PerPage
}
