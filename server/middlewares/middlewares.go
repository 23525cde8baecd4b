package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIdHeader carries the id assigned to each request, echoed back to the
// client and attached to log entries for correlation.
const RequestIdHeader = "X-Request-Id"

// RequestId middleware assigns a uuid to every incoming request unless the
// client already supplied one.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIdHeader, id)
		c.Next()
	}
}
