package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mcmanyika/cashround-sub000/services"
)

func SetupPoolRoutes(api fiber.Router, pools *services.PoolService, guard fiber.Handler) {
	api.Get("/pools", pools.GetPools)
	api.Get("/pools/:address/members", pools.GetPoolMembers)
	api.Get("/pools/:address/ledger", pools.GetPoolLedger)

	api.Post("/pools", guard, pools.CreatePool)
	api.Post("/pools/:address/contributions", guard, pools.AddContribution)
	api.Post("/pools/:address/payouts", guard, pools.AddPayout)
}
