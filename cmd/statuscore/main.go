package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/auth"
	"github.com/statuscore-dev/statuscore/internal/config"
	"github.com/statuscore-dev/statuscore/internal/handlers"
	"github.com/statuscore-dev/statuscore/internal/realtime"
	"github.com/statuscore-dev/statuscore/internal/registry"
	"github.com/statuscore-dev/statuscore/internal/router"
	"github.com/statuscore-dev/statuscore/internal/scheduler"
	"github.com/statuscore-dev/statuscore/internal/services"
	"github.com/statuscore-dev/statuscore/internal/status"
	"github.com/statuscore-dev/statuscore/internal/uptime"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Error initializing JWT: %v", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	uptimes := uptime.NewRefresher(cfg.UptimeRefreshInterval(), cfg.UptimeParallelism)
	if err := uptimes.Start(); err != nil {
		log.Fatalf("Failed to start uptime refresher: %v", err)
	}
	defer uptimes.Stop()

	store := registry.NewStore(uptimes, cfg.DegradedUptimeThreshold)
	if err := store.Load(); err != nil {
		log.Fatalf("Failed to load monitor registry: %v", err)
	}

	hub := realtime.NewHub(cfg.HeartbeatInterval())
	engine := status.NewEngine(store, hub.Broadcast)

	// Every registry/tracker/scheduler mutation recomputes the affected
	// page's snapshot, which the hub fans out to subscribed viewers.
	store.OnChange = engine.RecomputeAsync

	notifier := services.NewWebhookNotifier()

	handlers.Init(engine, hub, store, uptimes, notifier)

	if err := scheduler.Initialize(store, notifier, cfg.FailuresBeforeIncident); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
