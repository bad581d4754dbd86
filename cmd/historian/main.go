package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/busfinder/busfinder/internal/adapters/nats"
	"github.com/busfinder/busfinder/internal/bootstrap"
	"github.com/busfinder/busfinder/internal/core/usecases"
	"github.com/busfinder/busfinder/internal/pkg/config"
	"github.com/busfinder/busfinder/internal/pkg/logging"
	"github.com/busfinder/busfinder/internal/pkg/telemetry"
)

// The historian writes search-recorded events into users' recent searches.
// Replicas share one durable consumer, so each event is stored once.
func main() {
	cfg, err := config.Load("busfinder-historian")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	stores, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("catalog backend: %v", err)
	}
	defer stores.Close()

	history := usecases.NewHistoryService(stores.Recents, cfg.History.Limit)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	if err := consume(ctx, sub, history); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("historian started", "history_limit", cfg.History.Limit)
	<-ctx.Done()
	slog.Info("historian stopping")
}
