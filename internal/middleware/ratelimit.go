// Package middleware provides request context, logging, metrics, authentication
// and rate limiting middleware for the application.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"healthbuddy/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
	// FailLocal falls back to an in-process token bucket if Redis is unavailable.
	FailLocal
)

// RateLimitOptions configures a limiter route.
type RateLimitOptions struct {
	Limit  int
	Window time.Duration
	Name   string
	Policy FailPolicy
	// Local is consulted when Policy is FailLocal and Redis fails.
	Local *LocalLimiter
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
// Rate limiting is disabled when APP_ENV is "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	switch env {
	case "test", "development", "stress":
		return true, nil
	}

	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit").Inc()
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	if cnt > int64(limit) {
		return false, nil
	}
	return true, nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// It defaults to FailOpen policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	opts := RateLimitOptions{Limit: limit, Window: window, Policy: policy}
	if len(name) > 0 {
		opts.Name = name[0]
	}
	if policy == FailLocal {
		opts.Local = NewLocalLimiter(limit, window)
	}
	return RateLimitWithOptions(rdb, opts)
}

// RateLimitWithOptions is the configurable form of RateLimit.
func RateLimitWithOptions(rdb *redis.Client, opts RateLimitOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := limiterKey(c)

		resource := c.Path()
		if opts.Name != "" {
			resource = opts.Name
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, opts.Limit, opts.Window)
		if err != nil {
			switch opts.Policy {
			case FailClosed:
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("path", c.Path()),
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			case FailLocal:
				if opts.Local != nil && !opts.Local.Allow(resource+":"+id) {
					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
						"error": "rate limit exceeded",
					})
				}
				return c.Next()
			default:
				return c.Next()
			}
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}

func limiterKey(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.IP()
}
