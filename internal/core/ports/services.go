package ports

import (
	"context"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSearchRecorded(ctx context.Context, s *domain.RecentSearch) error
	PublishFavoritesChanged(ctx context.Context, userID string) error
	PublishCatalogUpdated(ctx context.Context) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSearchRecorded(ctx context.Context, handler func(ctx context.Context, s *domain.RecentSearch) error) error
	SubscribeCatalogUpdated(ctx context.Context, handler func(ctx context.Context) error) error
}

// SearchRecorder stores a performed search in the user's history.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, s *domain.RecentSearch) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
