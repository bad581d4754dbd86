package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// recordSearch stores one event and counts the outcome. Usage errors are
// returned as is so the subscriber terminates the message instead of retrying.
func recordSearch(ctx context.Context, recorder ports.SearchRecorder, rs *domain.RecentSearch) error {
	err := recorder.RecordSearch(ctx, rs)
	var usage *domain.UsageError
	switch {
	case err == nil:
		metrics.HistoryEventsProcessed.WithLabelValues("stored").Inc()
	case errors.As(err, &usage):
		metrics.HistoryEventsProcessed.WithLabelValues("rejected").Inc()
	default:
		metrics.HistoryEventsProcessed.WithLabelValues("failed").Inc()
		slog.WarnContext(ctx, "store recent search failed", "user_id", rs.UserID, "error", err)
	}
	return err
}

// consume subscribes recorder to search-recorded events.
func consume(ctx context.Context, events ports.EventSubscriber, recorder ports.SearchRecorder) error {
	return events.SubscribeSearchRecorded(ctx, func(ctx context.Context, rs *domain.RecentSearch) error {
		return recordSearch(ctx, recorder, rs)
	})
}
