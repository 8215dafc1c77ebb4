package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"replyloop/config"
)

// CronProtected guards the cycle-trigger endpoint with the shared cron
// secret. Rejection happens before any orchestrator side effect; comparison
// is constant time.
func CronProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// Some schedulers can only set a plain header.
			token = c.Get("X-Cron-Secret")
		}

		secret := config.AppConfig.CronSecret
		if token == "" || secret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid cron credential",
			})
		}

		return c.Next()
	}
}
