package usecases

import (
	"context"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
)

// LineService handles line-related business logic.
type LineService struct {
	catalog ports.CatalogReader
	cache   ports.CacheService
}

// NewLineService creates a new LineService. cache may be nil.
func NewLineService(catalog ports.CatalogReader, cache ports.CacheService) *LineService {
	return &LineService{catalog: catalog, cache: cache}
}

// ListActive returns all active lines in catalog order.
func (s *LineService) ListActive(ctx context.Context) ([]domain.Line, error) {
	var lines []domain.Line
	if cacheGet(ctx, s.cache, cacheKeyActiveLines, &lines) {
		return lines, nil
	}

	lines, err := s.catalog.ListActiveLines(ctx)
	if err != nil {
		return nil, domain.Upstream("list lines", err)
	}

	cacheSet(ctx, s.cache, cacheKeyActiveLines, lines, 300)
	return lines, nil
}

// GetByID returns an active line by its id.
func (s *LineService) GetByID(ctx context.Context, id string) (*domain.Line, error) {
	lines, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].ID == id {
			return &lines[i], nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "line", Key: id}
}

// ListByStop returns the active lines that pass through a stop in either direction.
func (s *LineService) ListByStop(ctx context.Context, stopID string) ([]domain.Line, error) {
	lines, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Line, 0)
	for i := range lines {
		if lines[i].IndexOf(stopID) >= 0 {
			out = append(out, lines[i])
		}
	}
	return out, nil
}
