package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/studymate/studymate-backend/internal/exam"
	"github.com/studymate/studymate-backend/internal/response"
	"github.com/studymate/studymate-backend/internal/service"
)

// failure maps a service error to a status and error code.
func failure(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrNoteNotFound),
		errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrExamSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrNoteForbidden),
		errors.Is(err, service.ErrUnflagForbidden),
		errors.Is(err, service.ErrReportForbidden):
		return http.StatusForbidden, response.ErrActionForbidden
	case errors.Is(err, exam.ErrSessionClosed):
		return http.StatusConflict, response.ErrSessionClosed
	case errors.Is(err, exam.ErrSubmitInProgress):
		return http.StatusConflict, response.ErrSubmitInProgress
	case errors.Is(err, exam.ErrUnknownQuestion):
		return http.StatusBadRequest, response.ErrUnknownQuestion
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, response.ErrInternal
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

func fail(c *gin.Context, err error) {
	status, code := failure(err)
	logFailure(c, status, code, err)
	response.Fail(c, status, code)
}

// logFailure records server-side failures on the request logger.
func logFailure(c *gin.Context, status int, code response.ErrCode, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	response.Logger(c).Error().
		Err(err).
		Int("status", status).
		Str("code", string(code)).
		Msg("Request failed")
}

// submitFailure is failure for submissions: errors the session does not
// know come from the report sink.
func submitFailure(err error) (int, response.ErrCode) {
	status, code := failure(err)
	if code == response.ErrInternal {
		return http.StatusBadGateway, response.ErrSubmitFailed
	}
	return status, code
}

func failSubmit(c *gin.Context, err error) {
	status, code := submitFailure(err)
	logFailure(c, status, code, err)
	response.Fail(c, status, code)
}

// paramID parses a UUID path parameter, failing the request when malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
