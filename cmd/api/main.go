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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/busfinder/busfinder/internal/adapters/http"
	natsadapter "github.com/busfinder/busfinder/internal/adapters/nats"
	"github.com/busfinder/busfinder/internal/adapters/valkey"
	"github.com/busfinder/busfinder/internal/bootstrap"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/core/routing"
	"github.com/busfinder/busfinder/internal/core/usecases"
	"github.com/busfinder/busfinder/internal/pkg/config"
	"github.com/busfinder/busfinder/internal/pkg/logging"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
	"github.com/busfinder/busfinder/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("busfinder-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Catalog and user data
	stores, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("catalog backend: %v", err)
	}
	defer stores.Close()

	verifier, err := stores.Verifier(ctx, cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	checks := map[string]http.Checker{cfg.Catalog.Backend: stores.Ping}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "busfinder:")
	if err != nil {
		slog.Warn("valkey unavailable, serving without cache", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		checks["cache"] = vc.Ping
	}

	// NATS
	var (
		publisher ports.EventPublisher
		recorder  ports.SearchRecorder
	)
	history := usecases.NewHistoryService(stores.Recents, cfg.History.Limit)
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, recording searches inline", "error", err)
		recorder = history
	} else {
		defer pub.Close()
		publisher = pub
		recorder = pub
	}

	// Use cases
	stopSvc := usecases.NewStopService(stores.Catalog, cache)
	lineSvc := usecases.NewLineService(stores.Catalog, cache)
	searchSvc := usecases.NewSearchService(lineSvc, stopSvc, recorder,
		routing.WithWorkers(cfg.Search.LookupWorkers),
		routing.WithLogger(logger),
		routing.WithDanglingHook(metrics.DanglingHook),
	)

	deps := &http.Dependencies{
		Stops:     stopSvc,
		Lines:     lineSvc,
		Search:    searchSvc,
		Favorites: usecases.NewFavoriteService(stores.Favorites, publisher),
		History:   history,
		Profiles:  usecases.NewProfileService(stores.Profiles),
		Verifier:  verifier,
		Checks:    checks,
		Options: http.Options{
			RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
			RateLimit:      cfg.Server.RateLimit,
			OpenAPIPath:    cfg.Server.OpenAPIPath,
		},
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	// Drop cached catalog reads when an import finishes
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable, catalog cache expires by ttl only", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeCatalogUpdated(ctx, func(ctx context.Context) error {
			slog.Info("catalog updated, invalidating cache")
			return stopSvc.InvalidateCatalog(ctx)
		}); err != nil {
			slog.Warn("subscribe catalog updates", "error", err)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "BusFinder API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "catalog_backend", cfg.Catalog.Backend)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
