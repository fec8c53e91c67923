package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mdb-curator/internal/platform/ctxutil"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

// RequestLogger writes one line per request once the handler chain returns.
// Server errors log at Error, client errors at Warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if caller := ctxutil.GetCaller(c.Request.Context()); caller != nil {
			kv = append(kv, "trace_id", caller.TraceID, "request_id", caller.RequestID)
			if caller.Operator != "" {
				// hashed by the logger
				kv = append(kv, "operator_id", caller.Operator)
			}
		}
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Err)
		}

		switch {
		case status >= 500:
			log.Error("request failed", kv...)
		case status >= 400:
			log.Warn("request rejected", kv...)
		default:
			log.Info("request served", kv...)
		}
	}
}
