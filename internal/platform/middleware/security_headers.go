package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the response headers expected of a JSON API that is
// reached from a browser front end. Strict-Transport-Security is only sent
// when the request arrived over TLS, directly or through a proxy.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if c.Request().Method != http.MethodGet || c.Path() != "/health" {
				h.Set("Cache-Control", "no-store")
			}
			if c.Scheme() == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}
			return next(c)
		}
	}
}
