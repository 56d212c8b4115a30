package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/karolswdev/jirapro/internal/auth"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestLog writes one structured record per request. It must run outside gin.Recovery
// so recovered panics are logged with their 500 status.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		defer func() {
			status := c.Writer.Status()
			evt := log.Info()
			if status >= 500 {
				evt = log.Error()
			}
			user, _ := auth.UserFrom(c.Request.Context())
			evt.Str("request_id", requestID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("query", c.Request.URL.RawQuery).
				Str("user", user).
				Int("status_code", status).
				Dur("duration", time.Since(start)).
				Int("response_bytes", c.Writer.Size()).
				Msg("Handled request")
		}()

		c.Next()
	}
}

// identity puts the caller named by header on the request context.
func identity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := c.GetHeader(header); user != "" {
			c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), user))
		}
		c.Next()
	}
}
