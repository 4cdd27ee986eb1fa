package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/response"
)

// maxPeekBytes bounds how much of a request body the limiter reads to find the student.
const maxPeekBytes = 4 << 10

// RateLimiter is a fixed-window counter kept in Redis, so every server
// instance shares the same budget per quiz and student.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
		log:    log.With().Str("component", "rate_limiter").Logger(),
	}
}

// Allow counts one request for the pair and reports whether it fits the current window.
func (rl *RateLimiter) Allow(ctx context.Context, quizID, studentID int64) (bool, error) {
	slot := rl.now().Unix() / int64(rl.window/time.Second)
	key := config.CacheKey.TabSwitchRateKey(quizID, studentID, slot)

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(rl.limit), nil
}

// TabSwitchMiddleware limits tab-switch reports per (quiz, student). Requests
// whose student cannot be identified pass through for the handler to reject.
// Redis failures let the request through.
func (rl *RateLimiter) TabSwitchMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		quizID, err := strconv.ParseInt(c.Param("quizId"), 10, 64)
		if err != nil {
			c.Next()
			return
		}
		studentID, ok := peekStudentID(c)
		if !ok {
			c.Next()
			return
		}

		allowed, err := rl.Allow(c.Request.Context(), quizID, studentID)
		if err != nil {
			rl.log.Warn().Err(err).Int64("quiz_id", quizID).Int64("student_id", studentID).Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rl.window/time.Second)))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// peekStudentID reads studentId from the JSON body and puts the body back for the handler.
func peekStudentID(c *gin.Context) (int64, bool) {
	if c.Request.Body == nil {
		return 0, false
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPeekBytes+1))
	rest := c.Request.Body
	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil || len(raw) > maxPeekBytes {
		return 0, false
	}

	var body struct {
		StudentID int64 `json:"studentId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.StudentID <= 0 {
		return 0, false
	}
	return body.StudentID, true
}
