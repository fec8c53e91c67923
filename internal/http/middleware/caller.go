package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/mdb-curator/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
	HeaderOperator  = "X-Operator"

	maxOperatorLen = 128
)

// AttachCaller puts a ctxutil.Caller on the request context. The request id is
// taken from the client when present; the trace id prefers the active span.
func AttachCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := &ctxutil.Caller{
			RequestID: strings.TrimSpace(c.GetHeader(HeaderRequestID)),
			Operator:  operatorFrom(c.GetHeader(HeaderOperator)),
		}
		if caller.RequestID == "" {
			caller.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			caller.TraceID = sc.TraceID().String()
		} else if id := strings.TrimSpace(c.GetHeader(HeaderTraceID)); id != "" {
			caller.TraceID = id
		} else {
			caller.TraceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		c.Request = c.Request.WithContext(ctxutil.WithCaller(c.Request.Context(), caller))
		c.Header(HeaderTraceID, caller.TraceID)
		c.Header(HeaderRequestID, caller.RequestID)
		c.Next()
	}
}

func operatorFrom(raw string) string {
	op := strings.TrimSpace(raw)
	if len(op) > maxOperatorLen {
		op = op[:maxOperatorLen]
	}
	return op
}
