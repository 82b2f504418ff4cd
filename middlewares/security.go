package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens API responses. Browser terminals may use the
// camera to read badges, so camera access stays allowed for this origin.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", "camera=(self), geolocation=(), microphone=()")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if !strings.HasSuffix(c.Request.URL.Path, ".pdf") {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
