package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders marks API responses as non-cacheable, non-sniffable and
// non-frameable. Responses carry applicant personal data.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
