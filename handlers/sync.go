package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mcmanyika/cashround-sub000/services"
)

// SetupSyncRoutes registers the pull-triggered sync endpoints and the price
// feed. Sync endpoints mutate the mirror, so they sit behind the guard.
func SetupSyncRoutes(api fiber.Router, sync *services.SyncService, price *services.PriceClient, guard fiber.Handler) {
	api.Post("/sync/user", guard, sync.SyncUserEndpoint)
	api.Post("/sync/pool", guard, sync.SyncPoolEndpoint)
	api.Post("/sync/pools", guard, sync.SyncAllPoolsEndpoint)

	api.Get("/price", price.GetPrice)
}
