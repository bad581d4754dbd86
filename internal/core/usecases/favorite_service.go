package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
)

// FavoriteService manages the routes users save for later.
type FavoriteService struct {
	favorites ports.FavoriteRepository
	publisher ports.EventPublisher
}

// NewFavoriteService creates a new FavoriteService. publisher may be nil.
func NewFavoriteService(favorites ports.FavoriteRepository, publisher ports.EventPublisher) *FavoriteService {
	return &FavoriteService{favorites: favorites, publisher: publisher}
}

// Add saves a route segment for userID. The origin and destination are the
// first and last stops of the segment. Saving the same line between the same
// stops twice returns domain.ErrAlreadyFavorited.
func (s *FavoriteService) Add(ctx context.Context, userID string, seg domain.RouteSegment) (*domain.FavoriteRoute, error) {
	if userID == "" {
		return nil, domain.NewUsageError("user id is required")
	}
	if seg.LineID == "" {
		return nil, domain.NewUsageError("line id is required")
	}
	if len(seg.Stops) < 2 {
		return nil, domain.NewUsageError("a favorite route needs at least two stops")
	}

	origin := seg.Stops[0]
	destination := seg.Stops[len(seg.Stops)-1]
	if origin.StopID == destination.StopID {
		return nil, domain.NewUsageError("origin and destination must be different stops")
	}

	existing, err := s.favorites.Find(ctx, userID, origin.StopID, destination.StopID, seg.LineID)
	if err != nil {
		return nil, domain.Upstream("find favorites", err)
	}
	if len(existing) > 0 {
		return nil, domain.ErrAlreadyFavorited
	}

	fav := &domain.FavoriteRoute{
		UserID:              userID,
		OriginStopID:        origin.StopID,
		OriginStopName:      origin.Name,
		DestinationStopID:   destination.StopID,
		DestinationStopName: destination.Name,
		LineID:              seg.LineID,
		LineNumber:          seg.LineNumber,
		LineName:            seg.LineName,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.favorites.Create(ctx, fav); err != nil {
		// Stores enforce uniqueness too, so a concurrent add loses here.
		if errors.Is(err, domain.ErrAlreadyFavorited) {
			return nil, domain.ErrAlreadyFavorited
		}
		return nil, domain.Upstream("create favorite", err)
	}

	s.notify(ctx, userID)
	return fav, nil
}

// List returns a user's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.FavoriteRoute, error) {
	favs, err := s.favorites.List(ctx, userID)
	if err != nil {
		return nil, domain.Upstream("list favorites", err)
	}
	if favs == nil {
		favs = []domain.FavoriteRoute{}
	}
	return favs, nil
}

// Remove deletes one favorite.
func (s *FavoriteService) Remove(ctx context.Context, userID, id string) error {
	if err := s.favorites.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Kind: "favorite", Key: id}
		}
		return domain.Upstream("delete favorite", err)
	}
	s.notify(ctx, userID)
	return nil
}

// IsFavorite reports whether any line between the two stops is saved.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, originStopID, destinationStopID string) (bool, error) {
	found, err := s.favorites.Find(ctx, userID, originStopID, destinationStopID, "")
	if err != nil {
		return false, domain.Upstream("find favorites", err)
	}
	return len(found) > 0, nil
}

func (s *FavoriteService) notify(ctx context.Context, userID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFavoritesChanged(ctx, userID); err != nil {
		slog.WarnContext(ctx, "publish favorites changed failed", "user_id", userID, "error", err)
	}
}
