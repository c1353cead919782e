package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorLogger logs any errors handlers attached with c.Error once the
// request completes.
func ErrorLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Only log when there are errors
		if len(c.Errors) == 0 {
			return
		}
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"user_id": c.GetString(ctxUserID),
		}).Error(c.Errors.String())
	}
}
