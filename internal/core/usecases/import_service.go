package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/pkg/telemetry"
	"github.com/busfinder/busfinder/internal/pkg/validation"
)

// DanglingRef is a line stop reference with no matching stop in the catalog.
type DanglingRef struct {
	LineID string `json:"line_id"`
	StopID string `json:"stop_id"`
}

// ImportReport summarizes a validated catalog.
type ImportReport struct {
	Stops    int           `json:"stops"`
	Lines    int           `json:"lines"`
	Dangling []DanglingRef `json:"dangling,omitempty"`
}

// ImportService loads catalog snapshots into the catalog store.
type ImportService struct {
	writer    ports.CatalogWriter
	stops     *StopService
	publisher ports.EventPublisher
}

// NewImportService creates a new ImportService. stops and publisher may be nil.
func NewImportService(writer ports.CatalogWriter, stops *StopService, publisher ports.EventPublisher) *ImportService {
	return &ImportService{writer: writer, stops: stops, publisher: publisher}
}

// Validate checks every stop and line of c. Lines that reference unknown
// stops are accepted and reported as dangling.
func (s *ImportService) Validate(c *domain.Catalog) (*ImportReport, error) {
	if c == nil || (len(c.Stops) == 0 && len(c.Lines) == 0) {
		return nil, domain.NewUsageError("catalog is empty")
	}

	known := make(map[string]struct{}, len(c.Stops))
	for i := range c.Stops {
		st := &c.Stops[i]
		if err := validation.Struct(st); err != nil {
			return nil, domain.NewUsageError("stop #%d: %s", i, err)
		}
		if _, dup := known[st.ID]; dup {
			return nil, domain.NewUsageError("duplicate stop id %q", st.ID)
		}
		known[st.ID] = struct{}{}
	}

	report := &ImportReport{Stops: len(c.Stops), Lines: len(c.Lines)}
	lineIDs := make(map[string]struct{}, len(c.Lines))
	for i := range c.Lines {
		l := &c.Lines[i]
		if err := validation.Struct(l); err != nil {
			return nil, domain.NewUsageError("line #%d: %s", i, err)
		}
		if _, dup := lineIDs[l.ID]; dup {
			return nil, domain.NewUsageError("duplicate line id %q", l.ID)
		}
		lineIDs[l.ID] = struct{}{}

		for _, id := range l.Stops {
			if _, ok := known[id]; !ok {
				report.Dangling = append(report.Dangling, DanglingRef{LineID: l.ID, StopID: id})
			}
		}
	}
	return report, nil
}

// UpsertStops writes stops to the catalog store.
func (s *ImportService) UpsertStops(ctx context.Context, stops []domain.Stop) error {
	if len(stops) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range stops {
		if stops[i].CreatedAt.IsZero() {
			stops[i].CreatedAt = now
		}
	}
	if err := s.writer.UpsertStops(ctx, stops); err != nil {
		return domain.Upstream("upsert stops", err)
	}
	return nil
}

// UpsertLines writes lines to the catalog store.
func (s *ImportService) UpsertLines(ctx context.Context, lines []domain.Line) error {
	if len(lines) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range lines {
		if lines[i].CreatedAt.IsZero() {
			lines[i].CreatedAt = now
		}
		lines[i].UpdatedAt = now
	}
	if err := s.writer.UpsertLines(ctx, lines); err != nil {
		return domain.Upstream("upsert lines", err)
	}
	return nil
}

// InvalidateCache drops cached catalog snapshots and the cached entries of
// the given stops.
func (s *ImportService) InvalidateCache(ctx context.Context, stopIDs []string) error {
	if s.stops == nil {
		return nil
	}
	return s.stops.InvalidateCatalog(ctx, stopIDs...)
}

// PublishUpdated announces a catalog change. Failures are logged only.
func (s *ImportService) PublishUpdated(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCatalogUpdated(ctx); err != nil {
		slog.WarnContext(ctx, "publish catalog updated failed", "error", err)
	}
}

// Import validates c and writes it in one pass, without a workflow engine.
func (s *ImportService) Import(ctx context.Context, c *domain.Catalog) (*ImportReport, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Import")
	defer span.End()

	report, err := s.importCatalog(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		telemetry.AttrCatalogStops.Int(report.Stops),
		telemetry.AttrCatalogLines.Int(report.Lines),
	)
	return report, nil
}

func (s *ImportService) importCatalog(ctx context.Context, c *domain.Catalog) (*ImportReport, error) {
	report, err := s.Validate(c)
	if err != nil {
		return nil, err
	}
	for _, d := range report.Dangling {
		slog.WarnContext(ctx, "line references unknown stop", "line_id", d.LineID, "stop_id", d.StopID)
	}
	if err := s.UpsertStops(ctx, c.Stops); err != nil {
		return nil, err
	}
	if err := s.UpsertLines(ctx, c.Lines); err != nil {
		return nil, err
	}
	if err := s.InvalidateCache(ctx, c.StopIDs()); err != nil {
		return nil, fmt.Errorf("invalidate catalog cache: %w", err)
	}
	s.PublishUpdated(ctx)
	return report, nil
}
