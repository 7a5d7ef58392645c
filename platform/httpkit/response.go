// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"bda_portal_backend/platform/apperr"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError maps application errors to HTTP responses.
// Untyped errors are treated as internal and reported to Sentry.
// Returns true if an error was handled.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	appErr, ok := apperr.As(err)
	if !ok {
		CaptureError(c, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return true
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		CaptureError(c, err)
	}
	message := appErr.Message
	if appErr.Kind == apperr.KindInternal && message == "" {
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Error: message, Details: appErr.Details})
	return true
}

// CaptureError reports err to the request's Sentry hub, if any.
func CaptureError(c *gin.Context, err error) {
	hub := sentry.CurrentHub()
	if c != nil {
		if ctxHub := sentrygin.GetHubFromContext(c); ctxHub != nil {
			hub = ctxHub
		}
	}
	if hub == nil || hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if c != nil {
			scope.SetTag("http.method", c.Request.Method)
			scope.SetTag("http.route", c.FullPath())
			scope.SetExtra("client_ip", c.ClientIP())
			if email := c.GetString(ContextEmailKey); email != "" {
				scope.SetUser(sentry.User{Email: email})
			}
		}
		hub.CaptureException(err)
	})
}
