package ports

import (
	"context"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// CatalogReader is the read-only view of the stop and line catalog.
// GetStopByID returns an error wrapping domain.ErrNotFound for unknown ids.
type CatalogReader interface {
	ListActiveLines(ctx context.Context) ([]domain.Line, error)
	GetStopByID(ctx context.Context, id string) (*domain.Stop, error)
	ListAllStops(ctx context.Context) ([]domain.Stop, error)
}

// CatalogWriter persists catalog entities during import.
type CatalogWriter interface {
	UpsertStops(ctx context.Context, stops []domain.Stop) error
	UpsertLines(ctx context.Context, lines []domain.Line) error
}

// FavoriteRepository persists users' favorite routes.
type FavoriteRepository interface {
	Create(ctx context.Context, fav *domain.FavoriteRoute) error
	List(ctx context.Context, userID string) ([]domain.FavoriteRoute, error)
	// Find returns favorites for the pair; an empty lineID matches any line.
	Find(ctx context.Context, userID, originStopID, destinationStopID, lineID string) ([]domain.FavoriteRoute, error)
	Delete(ctx context.Context, userID, id string) error
}

// RecentSearchRepository persists users' search history.
type RecentSearchRepository interface {
	// Replace removes entries for the same origin/destination pair and inserts s.
	Replace(ctx context.Context, s *domain.RecentSearch) error
	List(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error)
	// Trim keeps the newest keep entries and deletes the rest.
	Trim(ctx context.Context, userID string, keep int) error
	Delete(ctx context.Context, userID, id string) error
}

// ProfileRepository persists user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.UserProfile) error
	Get(ctx context.Context, uid string) (*domain.UserProfile, error)
	Update(ctx context.Context, p *domain.UserProfile) error
}
