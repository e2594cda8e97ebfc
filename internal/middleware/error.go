package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/admissions-api/internal/handler"
	apperrors "github.com/jwalitptl/admissions-api/pkg/errors"
)

// ErrorHandler logs errors attached to the context and writes the envelope
// when a handler attached an error without responding.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			event := log.Warn()
			if apperrors.CodeOf(e.Err) == apperrors.ErrInternal || apperrors.CodeOf(e.Err) == apperrors.ErrStore {
				event = log.Error()
			}
			event.
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"
		if appErr, ok := apperrors.As(c.Errors.Last().Err); ok {
			status = appErr.StatusCode()
			message = appErr.Message
		}
		c.JSON(status, handler.NewErrorResponse(message))
	}
}
