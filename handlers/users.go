package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mcmanyika/cashround-sub000/services"
)

// SetupUserRoutes registers the user mirror endpoints under the shared /api
// group. Reads stay open; writes go through the service-token guard.
func SetupUserRoutes(api fiber.Router, users *services.UserService, guard fiber.Handler) {
	api.Get("/users", users.GetUsers)
	api.Post("/users", guard, users.CreateUser)
}
