package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireVerified adapts the net/http VerifiedMiddleware to Gin.
func GinRequireVerified(verified *VerifiedMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		handler := verified.RequireVerified(next)
		handler.ServeHTTP(c.Writer, c.Request)

		// If the middleware already handled the response, stop Gin chain
		if c.Writer.Written() {
			c.Abort()
			return
		}
	}
}
