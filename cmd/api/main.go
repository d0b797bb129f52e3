package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpadapter "github.com/alandyousif/safar/internal/adapters/http"
	natsadapter "github.com/alandyousif/safar/internal/adapters/nats"
	"github.com/alandyousif/safar/internal/adapters/planner"
	"github.com/alandyousif/safar/internal/adapters/postgres"
	"github.com/alandyousif/safar/internal/adapters/valkey"
	"github.com/alandyousif/safar/internal/core/ports"
	"github.com/alandyousif/safar/internal/core/usecases"
	"github.com/alandyousif/safar/internal/pkg/config"
	"github.com/alandyousif/safar/internal/pkg/logging"
	"github.com/alandyousif/safar/internal/pkg/metrics"
	"github.com/alandyousif/safar/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("safar-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (optional — plan history is best-effort)
	var db *postgres.DB
	var planRepo ports.PlanRepository
	db, err = postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, plan history disabled", "error", err)
		db = nil
	} else {
		defer db.Close()
		planRepo = postgres.NewPlanRepo(db)
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	var events ports.PlanEventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Upstream planner client
	plannerClient := planner.New(cfg.Planner.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.Planner.TimeoutSeconds) * time.Second,
	})

	// Plan coordinator
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	coordinator := usecases.NewPlanCoordinator(plannerClient, cacheSvc, events, planRepo, usecases.CoordinatorConfig{
		PollInterval:   time.Duration(cfg.Planner.PollIntervalSeconds) * time.Second,
		MaxDisplayDays: cfg.Planner.MaxDisplayDays,
	})

	// Load previously generated plans so the map is populated at startup
	hydrateCtx, hydrateCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := coordinator.Hydrate(hydrateCtx); err != nil {
		slog.Warn("hydration failed", "error", err)
	}
	hydrateCancel()

	// DB pool gauges
	if db != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(db.Pool.Stat())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	deps := &httpadapter.Dependencies{
		Coordinator: coordinator,
		Plans:       planRepo,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Safar API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	httpadapter.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Stop polling before the server goes away
	coordinator.Teardown()

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
