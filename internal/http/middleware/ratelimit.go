package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fbkorg/chatbot-backend/internal/http/response"
	"github.com/fbkorg/chatbot-backend/internal/platform/logger"
)

// RateLimit applies a fixed-window per-IP limit backed by redis. A nil
// client disables limiting, and a redis outage fails open: losing the
// limiter should never take the chat down with it.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), time.Now().Unix()/int64(window.Seconds()))

		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			log.Warn("Rate limiter unavailable; failing open", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(c.Request.Context(), key, window).Err(); err != nil {
				log.Debug("Rate limit key expire failed", "error", err)
			}
		}
		if count > int64(limit) {
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited",
				fmt.Errorf("too many requests, try again shortly"))
			c.Abort()
			return
		}
		c.Next()
	}
}
