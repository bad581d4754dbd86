package usecases_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// --- Mock CatalogReader ---

type mockCatalog struct {
	listActiveLinesFn func(ctx context.Context) ([]domain.Line, error)
	getStopByIDFn     func(ctx context.Context, id string) (*domain.Stop, error)
	listAllStopsFn    func(ctx context.Context) ([]domain.Stop, error)
}

func (m *mockCatalog) ListActiveLines(ctx context.Context) ([]domain.Line, error) {
	if m.listActiveLinesFn != nil {
		return m.listActiveLinesFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalog) GetStopByID(ctx context.Context, id string) (*domain.Stop, error) {
	if m.getStopByIDFn != nil {
		return m.getStopByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("stop %s: %w", id, domain.ErrNotFound)
}

func (m *mockCatalog) ListAllStops(ctx context.Context) ([]domain.Stop, error) {
	if m.listAllStopsFn != nil {
		return m.listAllStopsFn(ctx)
	}
	return nil, nil
}

// catalogOf serves a fixed set of stops and lines.
func catalogOf(stops []domain.Stop, lines []domain.Line) *mockCatalog {
	byID := make(map[string]domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}
	return &mockCatalog{
		listActiveLinesFn: func(ctx context.Context) ([]domain.Line, error) { return lines, nil },
		listAllStopsFn:    func(ctx context.Context) ([]domain.Stop, error) { return stops, nil },
		getStopByIDFn: func(ctx context.Context, id string) (*domain.Stop, error) {
			s, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("stop %s: %w", id, domain.ErrNotFound)
			}
			return &s, nil
		},
	}
}

// --- Mock CatalogWriter ---

type mockWriter struct {
	upsertStopsFn func(ctx context.Context, stops []domain.Stop) error
	upsertLinesFn func(ctx context.Context, lines []domain.Line) error
}

func (m *mockWriter) UpsertStops(ctx context.Context, stops []domain.Stop) error {
	if m.upsertStopsFn != nil {
		return m.upsertStopsFn(ctx, stops)
	}
	return nil
}

func (m *mockWriter) UpsertLines(ctx context.Context, lines []domain.Line) error {
	if m.upsertLinesFn != nil {
		return m.upsertLinesFn(ctx, lines)
	}
	return nil
}

// --- Mock CacheService ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", key)
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock FavoriteRepository ---

type mockFavorites struct {
	createFn func(ctx context.Context, fav *domain.FavoriteRoute) error
	listFn   func(ctx context.Context, userID string) ([]domain.FavoriteRoute, error)
	findFn   func(ctx context.Context, userID, origin, destination, lineID string) ([]domain.FavoriteRoute, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (m *mockFavorites) Create(ctx context.Context, fav *domain.FavoriteRoute) error {
	if m.createFn != nil {
		return m.createFn(ctx, fav)
	}
	return nil
}

func (m *mockFavorites) List(ctx context.Context, userID string) ([]domain.FavoriteRoute, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFavorites) Find(ctx context.Context, userID, origin, destination, lineID string) ([]domain.FavoriteRoute, error) {
	if m.findFn != nil {
		return m.findFn(ctx, userID, origin, destination, lineID)
	}
	return nil, nil
}

func (m *mockFavorites) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

// --- Mock RecentSearchRepository ---

type mockRecents struct {
	replaceFn func(ctx context.Context, s *domain.RecentSearch) error
	listFn    func(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error)
	trimFn    func(ctx context.Context, userID string, keep int) error
	deleteFn  func(ctx context.Context, userID, id string) error
}

func (m *mockRecents) Replace(ctx context.Context, s *domain.RecentSearch) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, s)
	}
	return nil
}

func (m *mockRecents) List(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockRecents) Trim(ctx context.Context, userID string, keep int) error {
	if m.trimFn != nil {
		return m.trimFn(ctx, userID, keep)
	}
	return nil
}

func (m *mockRecents) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

// --- Mock ProfileRepository ---

type mockProfiles struct {
	createFn func(ctx context.Context, p *domain.UserProfile) error
	getFn    func(ctx context.Context, uid string) (*domain.UserProfile, error)
	updateFn func(ctx context.Context, p *domain.UserProfile) error
}

func (m *mockProfiles) Create(ctx context.Context, p *domain.UserProfile) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockProfiles) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, uid)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProfiles) Update(ctx context.Context, p *domain.UserProfile) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu               sync.Mutex
	searches         []*domain.RecentSearch
	favoritesChanged []string
	catalogUpdated   int
	err              error
}

func (m *mockPublisher) PublishSearchRecorded(ctx context.Context, s *domain.RecentSearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, s)
	return m.err
}

func (m *mockPublisher) PublishFavoritesChanged(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favoritesChanged = append(m.favoritesChanged, userID)
	return m.err
}

func (m *mockPublisher) PublishCatalogUpdated(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogUpdated++
	return m.err
}

// --- Mock SearchRecorder ---

type mockRecorder struct {
	recorded []*domain.RecentSearch
	err      error
}

func (m *mockRecorder) RecordSearch(ctx context.Context, s *domain.RecentSearch) error {
	m.recorded = append(m.recorded, s)
	return m.err
}
