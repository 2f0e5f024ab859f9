package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mcmanyika/cashround-sub000/services"
)

// SetupActivityRoutes registers the activity feed and the analytics reads.
// Activity writes mutate the mirror, so they sit behind the guard.
func SetupActivityRoutes(api fiber.Router, sync *services.SyncService, analytics *services.AnalyticsService, guard fiber.Handler) {
	api.Post("/activity", guard, sync.TrackActivityEndpoint)
	api.Get("/analytics", analytics.GetAnalytics)
}
