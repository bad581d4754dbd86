package routing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/busfinder/busfinder/internal/core/domain"
)

const defaultLookupWorkers = 8

// StopLookup resolves a stop id. Unknown ids must yield an error matching domain.ErrNotFound.
type StopLookup interface {
	GetStopByID(ctx context.Context, id string) (*domain.Stop, error)
}

// StopLookupFunc adapts a function to StopLookup.
type StopLookupFunc func(ctx context.Context, id string) (*domain.Stop, error)

func (f StopLookupFunc) GetStopByID(ctx context.Context, id string) (*domain.Stop, error) {
	return f(ctx, id)
}

// SegmentBuilder extracts the traveled part of a line and annotates its endpoints.
type SegmentBuilder struct {
	stops      StopLookup
	workers    int
	logger     *slog.Logger
	onDangling func(lineID, stopID string)
}

// Option configures a SegmentBuilder.
type Option func(*SegmentBuilder)

// WithWorkers bounds the number of concurrent stop lookups per segment.
func WithWorkers(n int) Option {
	return func(b *SegmentBuilder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger used for dangling reference warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *SegmentBuilder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithDanglingHook registers a callback invoked for every stop id that does not resolve.
func WithDanglingHook(fn func(lineID, stopID string)) Option {
	return func(b *SegmentBuilder) { b.onDangling = fn }
}

// NewSegmentBuilder creates a SegmentBuilder resolving stops through stops.
func NewSegmentBuilder(stops StopLookup, opts ...Option) *SegmentBuilder {
	b := &SegmentBuilder{
		stops:   stops,
		workers: defaultLookupWorkers,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build returns the segment of line between origin and destination, inclusive.
// Stops that cannot be resolved are dropped; any other lookup failure aborts the build.
func (b *SegmentBuilder) Build(ctx context.Context, line domain.Line, originStopID, destinationStopID string) (domain.RouteSegment, error) {
	if err := ValidatePair(originStopID, destinationStopID); err != nil {
		return domain.RouteSegment{}, err
	}
	originIdx, destinationIdx, ok := Serves(&line, originStopID, destinationStopID)
	if !ok {
		return domain.RouteSegment{}, domain.NewUsageError(
			"line %s does not run from %s to %s", line.ID, originStopID, destinationStopID)
	}

	ids := line.Stops[originIdx : destinationIdx+1]
	resolved, err := b.resolve(ctx, ids)
	if err != nil {
		return domain.RouteSegment{}, err
	}

	markers := make([]domain.StopMarker, 0, len(ids))
	for i, stop := range resolved {
		if stop == nil {
			b.logger.WarnContext(ctx, "dangling stop reference dropped",
				"line_id", line.ID, "stop_id", ids[i])
			if b.onDangling != nil {
				b.onDangling(line.ID, ids[i])
			}
			continue
		}
		markers = append(markers, domain.StopMarker{StopID: ids[i], Name: stop.Name})
	}
	if n := len(markers); n > 0 {
		markers[0].Highlighted = true
		markers[n-1].Highlighted = true
	}

	return domain.RouteSegment{
		LineID:     line.ID,
		LineNumber: line.Number,
		LineName:   line.Name,
		Stops:      markers,
	}, nil
}

// resolve looks up every id concurrently. The result is indexed like ids;
// a nil entry means the stop does not exist.
func (b *SegmentBuilder) resolve(ctx context.Context, ids []string) ([]*domain.Stop, error) {
	out := make([]*domain.Stop, len(ids))

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(b.workers)

	for i, id := range ids {
		p.Go(func(ctx context.Context) error {
			stop, err := b.stops.GetStopByID(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return domain.Upstream("get stop "+id, err)
			}
			out[i] = stop
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
