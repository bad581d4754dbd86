package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
)

// DefaultHistoryLimit is the number of recent searches kept per user.
const DefaultHistoryLimit = 10

// HistoryService keeps each user's recent searches.
type HistoryService struct {
	searches ports.RecentSearchRepository
	limit    int
}

// NewHistoryService creates a new HistoryService keeping at most limit entries per user.
func NewHistoryService(searches ports.RecentSearchRepository, limit int) *HistoryService {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryService{searches: searches, limit: limit}
}

// RecordSearch stores s, replacing any older entry for the same stop pair,
// and drops entries beyond the configured limit.
func (h *HistoryService) RecordSearch(ctx context.Context, s *domain.RecentSearch) error {
	if s.UserID == "" {
		return domain.NewUsageError("user id is required")
	}
	if s.OriginStopID == "" || s.DestinationStopID == "" {
		return domain.NewUsageError("origin and destination stop ids are required")
	}
	if s.SearchedAt.IsZero() {
		s.SearchedAt = time.Now().UTC()
	}

	if err := h.searches.Replace(ctx, s); err != nil {
		return domain.Upstream("record search", err)
	}
	if err := h.searches.Trim(ctx, s.UserID, h.limit); err != nil {
		return domain.Upstream("trim searches", err)
	}
	return nil
}

// List returns a user's recent searches, newest first.
func (h *HistoryService) List(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error) {
	if limit <= 0 || limit > h.limit {
		limit = h.limit
	}
	out, err := h.searches.List(ctx, userID, limit)
	if err != nil {
		return nil, domain.Upstream("list searches", err)
	}
	if out == nil {
		out = []domain.RecentSearch{}
	}
	return out, nil
}

// Remove deletes one history entry.
func (h *HistoryService) Remove(ctx context.Context, userID, id string) error {
	if err := h.searches.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Kind: "recent search", Key: id}
		}
		return domain.Upstream("delete search", err)
	}
	return nil
}
