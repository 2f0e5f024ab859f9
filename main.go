package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/mcmanyika/cashround-sub000/chain"
	"github.com/mcmanyika/cashround-sub000/database"
	"github.com/mcmanyika/cashround-sub000/handlers"
	"github.com/mcmanyika/cashround-sub000/middleware"
	"github.com/mcmanyika/cashround-sub000/services"
	"github.com/mcmanyika/cashround-sub000/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "cashround.db"
	}
	db, err := database.Connect(dbPath)
	if err != nil {
		log.Fatal("failed to open mirror database:", err)
	}
	defer database.Close(db)

	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		log.Fatal("RPC_URL environment variable not set")
	}
	chainClient, err := chain.NewClient(
		rpcURL,
		os.Getenv("REFERRAL_CONTRACT"),
		os.Getenv("POOL_FACTORY_CONTRACT"),
		os.Getenv("TOKEN_CONTRACT"),
	)
	if err != nil {
		log.Fatal("failed to init chain client:", err)
	}
	defer chainClient.Close()

	priceClient := services.NewPriceClient()
	stopPriceWarmer := priceClient.StartPriceWarmer()

	syncService := services.NewSyncService(db, chainClient)
	userService := services.NewUserService(db)
	poolService := services.NewPoolService(db, syncService)
	analyticsService := services.NewAnalyticsService(db, priceClient)

	app := fiber.New()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Service-Token",
	}))

	guard := middleware.ServiceToken()
	api := app.Group("/api")
	handlers.SetupUserRoutes(api, userService, guard)
	handlers.SetupPoolRoutes(api, poolService, guard)
	handlers.SetupActivityRoutes(api, syncService, analyticsService, guard)
	handlers.SetupSyncRoutes(api, syncService, priceClient, guard)

	api.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"status": "degraded", "error": "database unreachable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if raw := os.Getenv("POOL_SYNC_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			log.Fatalf("invalid POOL_SYNC_INTERVAL %q", raw)
		}
		go workers.PollPools(ctx, syncService, interval)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Mirror service running on http://localhost:%s", port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	stopPriceWarmer()
	_ = app.Shutdown()
}
