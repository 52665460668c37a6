package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/services"
	"github.com/sjperalta/techlog-api/internal/workflow"
	"github.com/sjperalta/techlog-api/pkg/logger"
	"gorm.io/gorm"
)

// errorStatus maps service and workflow errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case workflow.IsRetryable(err),
		errors.Is(err, identifier.ErrExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, capture.ErrInvalidCredentials):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrSequence),
		errors.Is(err, capture.ErrNoPending),
		errors.Is(err, capture.ErrBusy),
		errors.Is(err, identifier.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrUnknownCheck),
		errors.Is(err, capture.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, workflow.ErrEntryNotFound),
		errors.Is(err, workflow.ErrNoLogs),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders err; validation errors carry the offending field and missing checks
func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
		if len(verr.Missing) > 0 {
			body["missing"] = verr.Missing
		}
	}
	if workflow.IsRetryable(err) {
		body["retryable"] = true
	}
	return body
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else if status == http.StatusInternalServerError {
			sentry.CaptureException(err)
		}
	}
	c.JSON(status, errorBody(err))
}
