package middlewares

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shopfloor-app/utils"
)

// ScannerKeyMiddleware admits terminals presenting the shared key in the
// X-Scanner-Key header or the key query parameter. An empty key disables it.
func ScannerKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		presented := c.GetHeader("X-Scanner-Key")
		if presented == "" {
			presented = c.Query("key")
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid scanner key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LogScanRequest records every terminal request with its outcome.
func LogScanRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := utils.InfoLogger.WithField("ip", c.ClientIP()).
			WithField("status", c.Writer.Status()).
			WithField("duration", time.Since(start))
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Scan request failed")
			return
		}
		entry.Debug("Scan request")
	}
}
