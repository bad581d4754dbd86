package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/pkg/geospatial"
)

const (
	cacheKeyAllStops    = "catalog:stops:all"
	cacheKeyActiveLines = "catalog:lines:active"
	cacheKeyStopPrefix  = "stops:id:"
)

// StopService handles stop-related business logic.
type StopService struct {
	catalog ports.CatalogReader
	cache   ports.CacheService
}

// NewStopService creates a new StopService. cache may be nil.
func NewStopService(catalog ports.CatalogReader, cache ports.CacheService) *StopService {
	return &StopService{catalog: catalog, cache: cache}
}

// ListAll returns every stop in the catalog.
func (s *StopService) ListAll(ctx context.Context) ([]domain.Stop, error) {
	var stops []domain.Stop
	if s.cacheGet(ctx, cacheKeyAllStops, &stops) {
		return stops, nil
	}

	stops, err := s.catalog.ListAllStops(ctx)
	if err != nil {
		return nil, domain.Upstream("list stops", err)
	}

	// Cache for 5 minutes (stops don't change frequently)
	s.cacheSet(ctx, cacheKeyAllStops, stops, 300)
	return stops, nil
}

// GetByID returns a single stop.
func (s *StopService) GetByID(ctx context.Context, id string) (*domain.Stop, error) {
	cacheKey := cacheKeyStopPrefix + id
	var cached domain.Stop
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	stop, err := s.catalog.GetStopByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "stop", Key: id}
		}
		return nil, domain.Upstream("get stop", err)
	}
	if stop == nil {
		return nil, &domain.NotFoundError{Kind: "stop", Key: id}
	}

	s.cacheSet(ctx, cacheKey, stop, 600) // 10 min for single stop
	return stop, nil
}

// Search filters stops whose name contains query, ignoring case.
func (s *StopService) Search(ctx context.Context, query string, limit int) ([]domain.Stop, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, domain.NewUsageError("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Stop, 0)
	for _, st := range all {
		if strings.Contains(strings.ToLower(st.Name), query) {
			matches = append(matches, st)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches, nil
}

// ResolveName finds the stop whose name equals name, ignoring case and
// surrounding whitespace. The first match in catalog order wins.
func (s *StopService) ResolveName(ctx context.Context, name string) (*domain.Stop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewUsageError("stop name must not be empty")
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(strings.TrimSpace(all[i].Name), name) {
			return &all[i], nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "stop", Key: name}
}

// FindNearby returns stops within radiusMeters of the given point, nearest first.
// Stops without coordinates are skipped.
func (s *StopService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Stop, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusMeters)
	nearby := make([]domain.Stop, 0)
	for _, st := range all {
		if st.Location == nil {
			continue
		}
		p := st.Location
		if p.Lat < minLat || p.Lat > maxLat || p.Lon < minLon || p.Lon > maxLon {
			continue
		}
		d := geospatial.Haversine(lat, lon, p.Lat, p.Lon)
		if d > radiusMeters {
			continue
		}
		st.Distance = &d
		nearby = append(nearby, st)
	}

	sort.SliceStable(nearby, func(i, j int) bool { return *nearby[i].Distance < *nearby[j].Distance })
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// InvalidateCatalog drops cached catalog snapshots and the single-stop
// entries of stopIDs.
func (s *StopService) InvalidateCatalog(ctx context.Context, stopIDs ...string) error {
	if s.cache == nil {
		return nil
	}
	keys := []string{cacheKeyAllStops, cacheKeyActiveLines}
	for _, id := range stopIDs {
		keys = append(keys, cacheKeyStopPrefix+id)
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *StopService) cacheGet(ctx context.Context, key string, dst any) bool {
	return cacheGet(ctx, s.cache, key, dst)
}

func (s *StopService) cacheSet(ctx context.Context, key string, v any, ttlSeconds int) {
	cacheSet(ctx, s.cache, key, v, ttlSeconds)
}

func cacheGet(ctx context.Context, cache ports.CacheService, key string, dst any) bool {
	if cache == nil {
		return false
	}
	data, err := cache.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func cacheSet(ctx context.Context, cache ports.CacheService, key string, v any, ttlSeconds int) {
	if cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = cache.Set(ctx, key, data, ttlSeconds)
	}
}
