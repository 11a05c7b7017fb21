package api

import (
	"context"
	"fmt"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/auth"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const localUserID = "user_id"

// requestLogger logs one line per request and records its latency. Errors
// are rendered here so the logged status is the one the client sees.
func requestLogger(log *zap.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		latency := time.Since(start)
		m.ObserveHTTP(c.Method(), c.Route().Path, status, latency)
		log.Info("http request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()))
		return nil
	}
}

// requireAuth verifies the bearer credential and stores the user id.
func requireAuth(v auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ParseBearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		userID, err := v.Verify(token)
		if err != nil {
			return err
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func clientIP(c *fiber.Ctx) string { return c.IP() }

// Limiter counts a hit for key and reports whether it is still allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared by every node.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:ratelimit:%s", l.prefix, key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}

func rateLimit(l Limiter, log *zap.Logger, keyFunc func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil {
			return c.Next()
		}
		ok, err := l.Allow(c.UserContext(), keyFunc(c))
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			return apperr.Storage("ratelimit.allow", err)
		}
		if !ok {
			return apperr.RateLimited("rate limit exceeded")
		}
		return c.Next()
	}
}
