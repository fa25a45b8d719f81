package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/response"
)

// loginWindow is the fixed window the login limit applies to.
const loginWindow = time.Minute

// AttemptCounter increments a counter that expires after ttl and returns its new value.
type AttemptCounter interface {
	Hit(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter is an AttemptCounter shared by every server instance.
type RedisCounter struct {
	rdb redis.Cmdable
}

// NewRedisCounter creates a RedisCounter.
func NewRedisCounter(rdb redis.Cmdable) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Hit runs INCR and EXPIRE in one transaction.
func (r *RedisCounter) Hit(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter implements a per-IP fixed-window limit on login attempts.
type RateLimiter struct {
	counter AttemptCounter
	limit   int64
	clock   clock.Clock
	log     zerolog.Logger
}

// NewRateLimiter creates a RateLimiter allowing limit attempts per IP per minute.
func NewRateLimiter(counter AttemptCounter, limit int, clk clock.Clock, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		clock:   clk,
		log:     log.With().Str("component", "rate_limiter").Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
// Counter failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		now := rl.clock.Now()
		window := now.Unix() / int64(loginWindow/time.Second)
		key := config.CacheKey.LoginAttemptsKey(c.ClientIP(), window)

		count, err := rl.counter.Hit(c.Request.Context(), key, loginWindow)
		if err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}

		if count > rl.limit {
			windowEnd := time.Unix((window+1)*int64(loginWindow/time.Second), 0)
			retry := int(windowEnd.Sub(now).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
