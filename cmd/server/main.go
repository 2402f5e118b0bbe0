// cmd/server/main.go
// Entry point for the League Scheduler API server. The cmd/ folder holds
// executable binaries; internal/ holds the packages they wire together.
package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/trentd187/league-scheduler/internal/backup"
	"github.com/trentd187/league-scheduler/internal/config"
	"github.com/trentd187/league-scheduler/internal/database"
	"github.com/trentd187/league-scheduler/internal/generator"
	"github.com/trentd187/league-scheduler/internal/handlers"
	"github.com/trentd187/league-scheduler/internal/logger"
	"github.com/trentd187/league-scheduler/internal/middleware"
	"github.com/trentd187/league-scheduler/internal/pairing"
	"github.com/trentd187/league-scheduler/internal/scheduler"
	"github.com/trentd187/league-scheduler/internal/store"
	"github.com/trentd187/league-scheduler/internal/websocket"
)

func main() {
	// Configuration from environment variables (and optionally a .env file).
	cfg := config.Load()

	// Structured logging — everything below logs through this one zap
	// instance. Fall back to the standard library only if zap itself can't
	// be built, which means the config is unusable anyway.
	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Apply pending SQL migrations so the schema matches the models before
	// the first query runs.
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Storage layer: one GORM-backed store per aggregate.
	players := store.NewGormPlayerStore(db)
	weeks := store.NewGormWeekStore(db)
	schedules := store.NewGormScheduleStore(db)
	backups := store.NewGormBackupStore(db)
	pairings := store.NewGormPairingStore(db)

	// Scheduling core: tracker feeds pairing costs to the generator; the
	// manager orchestrates both plus backup/restore around regeneration.
	tracker := pairing.NewTracker(pairings, zlog)
	gen := generator.New(tracker, zlog)
	backupSvc := backup.NewService(backups, schedules, zlog)
	mgr := scheduler.NewManager(weeks, players, schedules, gen, tracker, backupSvc, zlog)

	// WebSocket hub: pushes schedule and regeneration events to clients
	// watching a week's tee sheet.
	hub := websocket.NewHub()
	go hub.Run()

	app := fiber.New(fiber.Config{
		AppName: "League Scheduler API",
	})

	// Global middleware: request logging and CORS for the web client.
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// Public liveness check for load balancers and container probes.
	app.Get("/health", handlers.HealthCheck)

	// All /api/v1 routes require a valid JWT; Auth also lazily syncs the
	// user record and stores id/role in the request context.
	api := app.Group("/api/v1", middleware.Auth(cfg, db))

	// Reads: any authenticated league member.
	api.Get("/weeks/:weekId/schedule", handlers.GetSchedule(mgr))
	api.Get("/weeks/:weekId/regeneration-status", handlers.GetRegenerationStatus(mgr))
	api.Get("/seasons/:seasonId/players/:playerId/pairings", handlers.GetPlayerPairings(tracker))
	api.Get("/schedules/:scheduleId/backups", handlers.ListBackups(backupSvc))

	// Players manage their own availability.
	api.Put("/weeks/:weekId/availability/:playerId", handlers.SetAvailability(weeks, hub))

	// Schedule mutation: organizers and admins only.
	api.Post("/weeks/:weekId/schedule",
		middleware.RequireRole("admin", "organizer"), handlers.CreateSchedule(mgr, hub))
	api.Post("/weeks/:weekId/schedule/regenerate",
		middleware.RequireRole("admin", "organizer"), handlers.RegenerateSchedule(mgr, hub))

	// Escape hatches for stuck locks: admin-only, operator-invoked.
	api.Delete("/weeks/:weekId/regeneration-lock",
		middleware.RequireRole("admin"), handlers.ForceReleaseRegenerationLock(mgr))
	api.Post("/admin/regeneration-statuses/cleanup",
		middleware.RequireRole("admin"), handlers.CleanupRegenerationStatuses(mgr))

	zlog.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
