package middlewares

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "tenderhub:ratelimit"

// NewRateLimiter builds a fixed-window limiter. With a Redis client the counters are
// shared by every API replica; without one they live in process memory.
func NewRateLimiter(limit int, window time.Duration, rdb *redis.Client, log *slog.Logger) (*limiter.Limiter, error) {
	rate := limiter.Rate{Period: window, Limit: int64(limit)}

	if rdb == nil {
		store := memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: time.Minute,
		})
		return limiter.New(store, rate), nil
	}

	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   rateLimitPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, err
	}

	log.Info("rate limiter using redis store", "limit", limit, "window", window.String())
	return limiter.New(store, rate), nil
}

// RateLimit enforces l per key. keyFn falls back to the client IP when it returns "".
func RateLimit(l *limiter.Limiter, keyFn func(*gin.Context) string, log *slog.Logger) gin.HandlerFunc {
	return mgin.NewMiddleware(l,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if k := keyFn(c); k != "" {
				return k
			}
			return c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			if reset := c.Writer.Header().Get("X-RateLimit-Reset"); reset != "" {
				if at, err := strconv.ParseInt(reset, 10, 64); err == nil {
					retry := time.Until(time.Unix(at, 0)).Seconds()
					if retry < 0 {
						retry = 0
					}
					c.Header("Retry-After", strconv.Itoa(int(retry)))
				}
			}
			abortWithError(c, http.StatusTooManyRequests, "rate_limited")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open: a broken limiter store must not take login down
			log.WarnContext(c.Request.Context(), "rate limiter store error", "err", err)
			c.Next()
		}),
	)
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != "" {
		return "user:" + id
	}
	return KeyByIP(c)
}
