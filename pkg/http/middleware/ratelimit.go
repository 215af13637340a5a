package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Limiter is a keyed token bucket.
type Limiter interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimit rejects clients that exceed burst requests, refilled at rps.
func RateLimit(l Limiter, rps, burst float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.Allow("http:"+c.RealIP(), burst, rps) {
				return next(c)
			}
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
			})
		}
	}
}
