package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/response"
	"github.com/stemsi/quizguard-backend/internal/service"
)

type errMapping struct {
	target error
	status int
	code   response.ErrCode
}

var serviceErrors = []errMapping{
	{service.ErrQuizNotFound, http.StatusNotFound, response.ErrQuizNotFound},
	{service.ErrQuizOrStudentNotFound, http.StatusNotFound, response.ErrQuizOrStudentNotFound},
	{service.ErrNoActiveAttempt, http.StatusNotFound, response.ErrNoActiveAttempt},
	{service.ErrNoSubmittedAttempt, http.StatusNotFound, response.ErrNoSubmittedAttempt},
	{service.ErrResumeRequestNotFound, http.StatusNotFound, response.ErrResumeRequestNotFound},
	{service.ErrResumeRequestPending, http.StatusConflict, response.ErrResumeRequestPending},
	{service.ErrResumeRequestResolved, http.StatusConflict, response.ErrAlreadyResolved},
	{service.ErrAttemptNotResumable, http.StatusConflict, response.ErrAttemptNotResumable},
}

// mapServiceError resolves a service error to its HTTP status and code.
// Anything unrecognised is an internal error.
func mapServiceError(err error) (int, response.ErrCode) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failService writes the mapped error response. Internal errors are logged
// with the request ID and never reach the client.
func failService(c *gin.Context, log zerolog.Logger, err error) {
	status, code := mapServiceError(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// parseID reads a positive int64 path parameter, writing 400 INVALID_ID otherwise.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
