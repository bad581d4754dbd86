package usecases

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/core/routing"
	"github.com/busfinder/busfinder/internal/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/busfinder/busfinder/internal/core/usecases")

// SearchService finds the lines serving a trip and the stops travelled on each.
type SearchService struct {
	lines    *LineService
	stops    *StopService
	builder  *routing.SegmentBuilder
	recorder ports.SearchRecorder
}

// NewSearchService creates a new SearchService. recorder may be nil, in which
// case searches are never written to history.
func NewSearchService(lines *LineService, stops *StopService, recorder ports.SearchRecorder, opts ...routing.Option) *SearchService {
	return &SearchService{
		lines:    lines,
		stops:    stops,
		builder:  routing.NewSegmentBuilder(routing.StopLookupFunc(stops.GetByID), opts...),
		recorder: recorder,
	}
}

// SearchByIDs returns one segment per active line that runs from originID to destinationID.
// An empty result is not an error.
func (s *SearchService) SearchByIDs(ctx context.Context, originID, destinationID string) ([]domain.RouteSegment, error) {
	ctx, span := tracer.Start(ctx, "SearchService.SearchByIDs")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrOriginStopID.String(originID),
		telemetry.AttrDestinationStopID.String(destinationID),
	)

	segments, err := s.searchByIDs(ctx, originID, destinationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(telemetry.AttrSegments.Int(len(segments)))
	return segments, nil
}

func (s *SearchService) searchByIDs(ctx context.Context, originID, destinationID string) ([]domain.RouteSegment, error) {
	if err := routing.ValidatePair(originID, destinationID); err != nil {
		return nil, err
	}

	lines, err := s.lines.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	matched, err := routing.FindServingLines(lines, originID, destinationID)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrLinesMatched.Int(len(matched)))

	segments := make([]domain.RouteSegment, 0, len(matched))
	for _, line := range matched {
		// Segments are independent; stop between lines when the caller gives up.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seg, err := s.builder.Build(ctx, line, originID, destinationID)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// SearchByName resolves stop names and searches between them. When userID is
// set the search is recorded in that user's history.
func (s *SearchService) SearchByName(ctx context.Context, userID, originName, destinationName string) (*domain.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "SearchService.SearchByName")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrOriginName.String(originName),
		telemetry.AttrDestinationName.String(destinationName),
	)

	if strings.TrimSpace(originName) == "" || strings.TrimSpace(destinationName) == "" {
		return nil, domain.NewUsageError("origin and destination names are required")
	}

	origin, err := s.resolve(ctx, "origin stop", originName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	destination, err := s.resolve(ctx, "destination stop", destinationName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	segments, err := s.searchByIDs(ctx, origin.ID, destination.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(telemetry.AttrSegments.Int(len(segments)))

	if userID != "" && s.recorder != nil {
		entry := &domain.RecentSearch{
			UserID:              userID,
			OriginStopID:        origin.ID,
			OriginStopName:      origin.Name,
			DestinationStopID:   destination.ID,
			DestinationStopName: destination.Name,
			SearchedAt:          time.Now().UTC(),
		}
		if err := s.recorder.RecordSearch(ctx, entry); err != nil {
			slog.WarnContext(ctx, "record recent search failed", "user_id", userID, "error", err)
		}
	}

	return &domain.SearchResult{
		Origin:      *origin,
		Destination: *destination,
		Segments:    segments,
	}, nil
}

func (s *SearchService) resolve(ctx context.Context, kind, name string) (*domain.Stop, error) {
	stop, err := s.stops.ResolveName(ctx, name)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return nil, &domain.NotFoundError{Kind: kind, Key: strings.TrimSpace(name)}
		}
		return nil, err
	}
	return stop, nil
}
