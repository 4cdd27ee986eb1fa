package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl lets the browser reuse a response for maxAgeSeconds.
// Quiz definitions are read-only, so the student page can cache them.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// NoStore marks responses that reflect live attempt or request state.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
