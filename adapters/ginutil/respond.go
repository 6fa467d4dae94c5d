// Package ginutil holds shared helpers for the gin HTTP adapter.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Rate limit bucket names.
const (
	RLNotify = "notify"
	RLResult = "result"
)

// RateLimiter is satisfied by both the memory and Redis limiters.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// AllowNamed applies the limiter keyed by client IP. A nil limiter and
// limiter errors both fail open: dropping a paid-for grant is worse than
// letting a burst through.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	ok, err := rl.AllowNamed(bucket, c.ClientIP())
	if err != nil {
		return true
	}
	return ok
}

func BadRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": code})
}

func ServerErr(c *gin.Context, code string) {
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": code})
}

func BadGateway(c *gin.Context, code string) {
	c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": code})
}

func TooMany(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "rate_limited"})
}
