package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.temporal.io/sdk/client"

	natsadapter "github.com/busfinder/busfinder/internal/adapters/nats"
	"github.com/busfinder/busfinder/internal/adapters/valkey"
	"github.com/busfinder/busfinder/internal/bootstrap"
	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/core/usecases"
	"github.com/busfinder/busfinder/internal/pkg/config"
	"github.com/busfinder/busfinder/internal/pkg/logging"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
	"github.com/busfinder/busfinder/internal/workflows"
)

func main() {
	app := &cli.App{
		Name:  "ingestor",
		Usage: "load bus stop and line catalogs",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check a catalog file without writing it",
				ArgsUsage: "<file|url>",
				Action:    validateAction,
			},
			{
				Name:      "load",
				Usage:     "import a catalog file through the importer workflow",
				ArgsUsage: "<file|url>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "direct", Usage: "write straight to the catalog store instead of starting a workflow"},
					&cli.BoolFlag{Name: "wait", Value: true, Usage: "wait for the workflow to finish"},
				},
				Action: loadAction,
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func validateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: ingestor validate <file|url>", 2)
	}
	catalog, err := readCatalog(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	report, err := usecases.NewImportService(nil, nil, nil).Validate(catalog)
	if err != nil {
		return err
	}
	return printReport(report)
}

func loadAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: ingestor load [--direct] <file|url>", 2)
	}
	cfg, err := config.Load("busfinder-ingestor")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	source := c.Args().First()
	catalog, err := readCatalog(c.Context, source)
	if err != nil {
		return err
	}
	slog.Info("catalog read", "source", source, "stops", len(catalog.Stops), "lines", len(catalog.Lines))

	if c.Bool("direct") {
		return loadDirect(c.Context, cfg, catalog)
	}

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer tc.Close()

	run, err := tc.ExecuteWorkflow(c.Context, client.StartWorkflowOptions{
		ID:        "catalog-import-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.CatalogImportWorkflow, workflows.CatalogImportInput{Source: source, Catalog: *catalog})
	if err != nil {
		return fmt.Errorf("start import: %w", err)
	}
	slog.Info("import workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	if !c.Bool("wait") {
		return nil
	}

	var report usecases.ImportReport
	if err := run.Get(c.Context, &report); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return printReport(&report)
}

// loadDirect imports without Temporal, for local setups and seeding.
func loadDirect(ctx context.Context, cfg *config.Config, catalog *domain.Catalog) error {
	stores, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("catalog backend: %w", err)
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
		slog.Warn("nats unavailable, catalog update will not be announced", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	start := time.Now()
	imports := usecases.NewImportService(stores.Catalog, usecases.NewStopService(stores.Catalog, cache), publisher)
	report, err := imports.Import(ctx, catalog)
	if err != nil {
		metrics.CatalogImports.WithLabelValues("failed").Inc()
		return err
	}
	metrics.CatalogImports.WithLabelValues("ok").Inc()
	slog.Info("catalog imported", "elapsed", time.Since(start).String())
	return printReport(report)
}

func printReport(r *usecases.ImportReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
