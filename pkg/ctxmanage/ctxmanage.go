package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIdKey = "trace_id"

// GetTraceIdOfRequest returns the trace id stored on the gin context by the
// logger middleware, generating one if the request skipped the middleware.
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Value(TraceIdKey).(string)
	if !ok {
		traceId = uuid.NewString()
		c.Set(TraceIdKey, traceId)
	}
	return traceId
}
