package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodySize caps the request body. Reads past maxBytes fail with
// *http.MaxBytesError, which the handlers report as 413. A non-positive
// limit disables the cap.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
