// Package handlers implements the ledger's HTTP endpoints. Every failure
// is answered with an ErrorResponse carrying a stable snake_case code:
//
//	HTTP/1.1 409 Conflict
//	{"request_id": "123e4567-e89b-12d3-a456-426614174000", "code": "already_submitted", "message": "proof already submitted"}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/alive28-ledger/internal/http/middleware"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"missing_checkin"`
	Message   string `json:"message" example:"no check-in for today"`
}

// fail aborts with the envelope. 5xx answers are also logged on the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	rid := middleware.RequestIDFrom(c)
	if rid == "" {
		rid = c.Writer.Header().Get("X-Request-ID")
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{RequestID: rid, Code: code, Message: msg})
}

// Fail lets the router's NoRoute and NoMethod fallbacks share the envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failWith answers with the mapping of err. For 5xx the underlying error is
// attached to the context so the access log records it; the client only
// sees the sanitized message.
func failWith(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	fail(c, status, code, msg)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }
