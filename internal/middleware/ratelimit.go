package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/multilink-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"

	rateLimitMessage = "Too many requests from this IP, please try again later."
)

// RateLimiter is a per-IP fixed window counter kept in Redis, so the limit
// holds across instances. Redis failures let the request through.
type RateLimiter struct {
	rdb        *redis.Client
	window     time.Duration
	max        int
	trustProxy bool
	skip       map[string]bool
	log        *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, window time.Duration, max int, trustProxy bool, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:        rdb,
		window:     window,
		max:        max,
		trustProxy: trustProxy,
		skip:       map[string]bool{"/health": true},
		log:        log,
	}
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.skip[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := clientip.RealClientIP(r, l.trustProxy)
		key := RateLimitKeyPrefix + ip

		pipe := l.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pttl := pipe.PTTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			l.log.Warn("rate limit check failed", zap.String("ip", ip), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		// First hit in the window starts the clock.
		ttl := pttl.Val()
		if ttl < 0 {
			if err := l.rdb.PExpire(ctx, key, l.window).Err(); err != nil {
				l.log.Warn("rate limit expire failed", zap.String("ip", ip), zap.Error(err))
			}
			ttl = l.window
		}

		count := int(incr.Val())
		remaining := l.max - count
		if remaining < 0 {
			remaining = 0
		}
		reset := int((ttl + time.Second - 1) / time.Second)

		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(reset))

		if count > l.max {
			w.Header().Set("Retry-After", strconv.Itoa(reset))
			writeError(w, http.StatusTooManyRequests, rateLimitMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}
