package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs every request with method, path, status, latency and
// the caller's device info parsed from the User-Agent header.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
		}

		if userAgent := c.Request.UserAgent(); userAgent != "" {
			parser := ua.New(userAgent)
			browser, version := parser.Browser()
			fields["browser"] = browser
			fields["browser_ver"] = version
			fields["os"] = parser.OSInfo().FullName
			fields["mobile"] = parser.Mobile()
			fields["bot"] = parser.Bot()
		}

		if userCtx, exists := GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
