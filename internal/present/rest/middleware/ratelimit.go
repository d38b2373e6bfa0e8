package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter budgets one route group to perMinute requests per client IP.
// A zero or negative budget disables limiting, for tests and trusted
// deployments.
func RateLimiter(perMinute float64) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perMinute / 60),
		Burst:     int(perMinute),
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiter(store)
}
