package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/services"
	"github.com/temcen/animerec/internal/view"
)

const tooManyRequestsMessage = "Error: Too many requests. Please wait a moment."

// RateLimit limits page actions per session cookie, or per client IP before a session exists.
// A blocked action gets the error display instead of reaching the backend.
func RateLimit(limiter *services.RateLimiter, cookieName string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, err := c.Cookie(cookieName); err == nil && id != "" {
			key = "session:" + id
		}

		allowed, info := limiter.Allow(c.Request.Context(), key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"key":   key,
				"limit": info.Limit,
				"path":  c.Request.URL.Path,
			}).Warn("Rate limit exceeded")

			c.HTML(http.StatusTooManyRequests, view.TemplateDisplay, view.Error(tooManyRequestsMessage))
			c.Abort()
			return
		}

		c.Next()
	}
}
