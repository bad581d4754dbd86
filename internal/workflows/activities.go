package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/usecases"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// ErrTypeInvalidCatalog marks validation failures, which are never retried.
const ErrTypeInvalidCatalog = "InvalidCatalog"

// ImportActivities holds the activity implementations for the catalog import workflow.
type ImportActivities struct {
	Imports *usecases.ImportService
}

// ValidateCatalog checks the snapshot and reports dangling stop references.
func (a *ImportActivities) ValidateCatalog(ctx context.Context, c domain.Catalog) (*usecases.ImportReport, error) {
	report, err := a.Imports.Validate(&c)
	if err != nil {
		var usage *domain.UsageError
		if errors.As(err, &usage) {
			metrics.CatalogImports.WithLabelValues("invalid").Inc()
			return nil, temporal.NewNonRetryableApplicationError(usage.Error(), ErrTypeInvalidCatalog, err)
		}
		return nil, err
	}
	for _, d := range report.Dangling {
		activity.GetLogger(ctx).Warn("line references unknown stop", "line_id", d.LineID, "stop_id", d.StopID)
	}
	return report, nil
}

// UpsertStops writes the catalog stops.
func (a *ImportActivities) UpsertStops(ctx context.Context, stops []domain.Stop) error {
	if err := a.Imports.UpsertStops(ctx, stops); err != nil {
		return fmt.Errorf("upsert %d stops: %w", len(stops), err)
	}
	return nil
}

// UpsertLines writes the catalog lines.
func (a *ImportActivities) UpsertLines(ctx context.Context, lines []domain.Line) error {
	if err := a.Imports.UpsertLines(ctx, lines); err != nil {
		return fmt.Errorf("upsert %d lines: %w", len(lines), err)
	}
	return nil
}

// InvalidateCatalogCache drops cached catalog snapshots and the imported stops.
func (a *ImportActivities) InvalidateCatalogCache(ctx context.Context, stopIDs []string) error {
	return a.Imports.InvalidateCache(ctx, stopIDs)
}

// PublishCatalogUpdated announces the import to API instances.
func (a *ImportActivities) PublishCatalogUpdated(ctx context.Context) error {
	a.Imports.PublishUpdated(ctx)
	metrics.CatalogImports.WithLabelValues("ok").Inc()
	return nil
}
