package middleware

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// ServiceToken gates mutating routes behind a shared token when
// MIRROR_SERVICE_TOKEN is set. Unset leaves the mirror open, which matches
// the local-dev deployment the frontend expects.
func ServiceToken() fiber.Handler {
	expected := os.Getenv("MIRROR_SERVICE_TOKEN")
	if expected == "" {
		log.Println("⚠️  MIRROR_SERVICE_TOKEN not set, write endpoints are open")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		if c.Get("X-Service-Token") != expected {
			log.Printf("🚫 [TOKEN] rejected %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}
		return c.Next()
	}
}
