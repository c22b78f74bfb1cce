package http

import (
	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets default Cache-Control headers on GET responses that
// did not set their own.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		var ttl string
		switch c.Path() {
		case "/v1/health", "/v1/ready", "/":
			ttl = "no-cache"
		case "/metrics":
			ttl = "no-cache"
		case "/v1/zones", "/risk-zones":
			// Zones change rarely but must propagate quickly.
			ttl = "public, max-age=30"
		case "/docs", "/docs/openapi.yaml":
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
