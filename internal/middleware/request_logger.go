package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// RequestLogger logs one line per request. Routes are logged by template
// (/sessions/:id/entries/:seq) with the session and entry as separate attributes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "/api/v1/health" || strings.HasPrefix(route, "/swagger/") {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		}

		if id := GetUserID(c); id != 0 {
			attrs = append(attrs, slog.Uint64("user_id", uint64(id)))
		}
		if sessionID := c.Param("id"); sessionID != "" && strings.HasPrefix(route, "/api/v1/sessions/") {
			attrs = append(attrs, slog.String("session_id", sessionID))
		}
		if seq := c.Param("seq"); seq != "" {
			attrs = append(attrs, slog.String("seq", seq))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("error", errs))
		}

		switch {
		case status >= 500:
			logger.Log.Error("Request failed", attrs...)
		case status >= 400:
			logger.Log.Warn("Request rejected", attrs...)
		default:
			logger.Log.Info("Request handled", attrs...)
		}
	}
}
