package middleware

import (
	"context"
	"strconv"
	"time"

	"tapearn/internal/domain"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// UseRedis shares client with every limiter. With nil, limits are counted in
// process memory.
func UseRedis(client *redis.Client) {
	redisClient = client
}

// KeyFunc picks the identity a request is counted against.
type KeyFunc func(c *gin.Context) string

// ByIP counts per client address.
func ByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUser counts per authenticated player and needs JWT to run first.
// Anonymous requests fall back to the client address.
func ByUser(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return ByIP(c)
}

// RateLimit is a fixed-window limiter allowing maxRequests per window for each
// key. Redis is used through INCR/EXPIRE when available, and Redis errors fail
// open. key format: rl:<scope>:<window_seconds>:<identifier>
func RateLimit(scope string, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	local := newMemoryLimiter(window)
	windowSecs := strconv.FormatInt(int64(window.Seconds()), 10)

	return func(c *gin.Context) {
		if maxRequests <= 0 {
			c.Next()
			return
		}

		ident := key(c)
		var val int64
		if client := redisClient; client != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			rkey := "rl:" + scope + ":" + windowSecs + ":" + ident
			n, err := client.Incr(ctx, rkey).Result()
			if err != nil {
				c.Header("X-RateLimit-Error", "redis-error")
				c.Next()
				return
			}
			if n == 1 {
				client.Expire(ctx, rkey, window)
			}
			val = n
		} else {
			val = local.hit(ident, time.Now())
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(scope).Inc()
			c.Header("Retry-After", windowSecs)
			AbortError(c, domain.ErrRateLimited)
			return
		}

		RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}
