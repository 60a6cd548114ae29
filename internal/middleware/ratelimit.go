package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// MsgThrottled is returned to throttled callers.
const MsgThrottled = "Request was throttled."

// Limiter decides whether another request under key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisLimiter is a fixed-window counter kept in Redis.
type RedisLimiter struct {
	client redis.Scripter
	script *redis.Script
	prefix string
}

// NewRedisLimiter returns nil for a nil client; a nil limiter allows everything.
func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{client: client, script: redis.NewScript(rateLimitScript), prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true, nil
	}
	if l.prefix != "" {
		key = l.prefix + ":" + key
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{key}, ttl, limit).Int64()
	if err != nil {
		return true, err
	}
	return allowed == 1, nil
}

// RateLimit throttles a route per principal, falling back to client IP for
// anonymous callers. Limiter errors fail open.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration, m *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || limit <= 0 {
				return next(c)
			}

			who := "ip:" + c.RealIP()
			if p := PrincipalFrom(c); p.Authenticated() {
				who = "user:" + strconv.FormatUint(uint64(p.ID), 10)
			}

			allowed, err := limiter.Allow(c.Request().Context(), "ratelimit:"+scope+":"+who, limit, window)
			if err != nil {
				logger.FromEcho(c).Warn("Rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			}
			if !allowed {
				m.RateLimited(scope)
				c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
				return apperrors.RateLimited(MsgThrottled)
			}
			return next(c)
		}
	}
}
