package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/safezone/internal/adapters/filestore"
	"github.com/samirrijal/safezone/internal/adapters/http"
	natsadapter "github.com/samirrijal/safezone/internal/adapters/nats"
	"github.com/samirrijal/safezone/internal/adapters/postgres"
	"github.com/samirrijal/safezone/internal/adapters/valkey"
	"github.com/samirrijal/safezone/internal/core/ports"
	"github.com/samirrijal/safezone/internal/core/usecases"
	"github.com/samirrijal/safezone/internal/pkg/config"
	"github.com/samirrijal/safezone/internal/pkg/logging"
	"github.com/samirrijal/safezone/internal/pkg/telemetry"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load("safezone-api")
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

	deps := &http.Dependencies{RateLimit: cfg.Server.RateLimit}

	// Zone store
	var zones ports.ZoneStore
	switch cfg.Store.Driver {
	case config.StoreFile:
		zones = filestore.NewZoneFile(cfg.Store.ZonesFile)
		slog.Info("reading zones from file", "path", cfg.Store.ZonesFile)
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)

		zones = postgres.NewZoneRepo(db)
		deps.DB = db
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
			deps.LimiterStorage = valkey.NewStorage(vc, "limiter:")
		}
	}

	// NATS
	var publisher ports.EventPublisher
	if cfg.NATS.URL != "" {
		if cfg.Alerts.Enabled {
			pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
			if err != nil {
				slog.Warn("nats unavailable, zone alerts disabled", "error", err)
			} else {
				defer pub.Close()
				publisher = pub
			}
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	}

	// Use cases
	deps.Store = zones
	deps.Checks = usecases.NewCheckService(zones, publisher)
	deps.Zones = usecases.NewZoneService(zones, cache, cfg.Zones.CacheTTL)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "SafeZone API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "store", cfg.Store.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
