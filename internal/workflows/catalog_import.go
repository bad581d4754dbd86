package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/usecases"
)

// CatalogImportInput is the input for the catalog import workflow.
type CatalogImportInput struct {
	Source  string // file or URL the catalog was read from, for logs
	Catalog domain.Catalog
}

// CatalogImportWorkflow validates a catalog snapshot, upserts stops before
// lines, then drops cached catalog reads and announces the update. Upserts
// are idempotent, so a failed run is repaired by running it again.
func CatalogImportWorkflow(ctx workflow.Context, input CatalogImportInput) (*usecases.ImportReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting catalog import", "source", input.Source,
		"stops", len(input.Catalog.Stops), "lines", len(input.Catalog.Lines))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidCatalog},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Validate
	var report usecases.ImportReport
	if err := workflow.ExecuteActivity(ctx, "ValidateCatalog", input.Catalog).Get(ctx, &report); err != nil {
		return nil, err
	}
	if len(report.Dangling) > 0 {
		logger.Warn("catalog has dangling stop references", "count", len(report.Dangling))
	}

	// Step 2: Stops first so lines never point at stops that were not written
	if err := workflow.ExecuteActivity(ctx, "UpsertStops", input.Catalog.Stops).Get(ctx, nil); err != nil {
		return nil, err
	}
	if err := workflow.ExecuteActivity(ctx, "UpsertLines", input.Catalog.Lines).Get(ctx, nil); err != nil {
		return nil, err
	}

	// Step 3: Invalidate caches, then tell API instances
	if err := workflow.ExecuteActivity(ctx, "InvalidateCatalogCache", input.Catalog.StopIDs()).Get(ctx, nil); err != nil {
		logger.Warn("cache invalidation failed, entries expire on their own", "error", err)
	}
	_ = workflow.ExecuteActivity(ctx, "PublishCatalogUpdated").Get(ctx, nil)

	logger.Info("Catalog import finished", "stops", report.Stops, "lines", report.Lines)
	return &report, nil
}
