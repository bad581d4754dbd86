package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/busfinder/busfinder/internal/adapters/nats"
	"github.com/busfinder/busfinder/internal/adapters/valkey"
	"github.com/busfinder/busfinder/internal/bootstrap"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/core/usecases"
	"github.com/busfinder/busfinder/internal/pkg/config"
	"github.com/busfinder/busfinder/internal/pkg/logging"
	"github.com/busfinder/busfinder/internal/workflows"
)

// The importer is the Temporal worker running catalog import workflows.
func main() {
	cfg, err := config.Load("busfinder-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	stores, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("catalog backend: %v", err)
	}
	defer stores.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "busfinder:"); err != nil {
		slog.Warn("valkey unavailable, skipping cache invalidation", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, catalog updates will not be announced", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.CatalogImportWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{
		Imports: usecases.NewImportService(stores.Catalog, usecases.NewStopService(stores.Catalog, cache), publisher),
	})

	slog.Info("importer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
