package middleware

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/stocki/internal/metrics"
)

// Allower decides whether a keyed request may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit rejects requests from a client IP once its bucket for the route
// is empty. Limiter errors let the request through.
func RateLimit(limiter Allower, route string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		ok, wait, err := limiter.Allow(c.UserContext(), route+":"+c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable", slog.String("route", route), slog.Any("error", err))
			return c.Next()
		}
		if !ok {
			metrics.RateLimited.WithLabelValues(route).Inc()
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, please retry later")
		}
		return c.Next()
	}
}
