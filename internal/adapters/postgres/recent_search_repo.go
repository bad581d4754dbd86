package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// RecentSearchRepo implements ports.RecentSearchRepository.
type RecentSearchRepo struct {
	db *DB
}

func NewRecentSearchRepo(db *DB) *RecentSearchRepo { return &RecentSearchRepo{db: db} }

// Replace upserts on (user_id, origin_stop_id, destination_stop_id), so a
// repeated search takes a new id and moves to the top.
func (r *RecentSearchRepo) Replace(ctx context.Context, s *domain.RecentSearch) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO recent_searches (id, user_id, origin_stop_id, origin_stop_name,
		                             destination_stop_id, destination_stop_name, searched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, origin_stop_id, destination_stop_id) DO UPDATE
		SET id = EXCLUDED.id, origin_stop_name = EXCLUDED.origin_stop_name,
		    destination_stop_name = EXCLUDED.destination_stop_name,
		    searched_at = EXCLUDED.searched_at
	`, s.ID, s.UserID, s.OriginStopID, s.OriginStopName,
		s.DestinationStopID, s.DestinationStopName, s.SearchedAt)
	return err
}

func (r *RecentSearchRepo) List(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, origin_stop_id, origin_stop_name,
		       destination_stop_id, destination_stop_name, searched_at
		FROM recent_searches
		WHERE user_id = $1
		ORDER BY searched_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RecentSearch, 0)
	for rows.Next() {
		var s domain.RecentSearch
		if err := rows.Scan(&s.ID, &s.UserID, &s.OriginStopID, &s.OriginStopName,
			&s.DestinationStopID, &s.DestinationStopName, &s.SearchedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *RecentSearchRepo) Trim(ctx context.Context, userID string, keep int) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM recent_searches
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM recent_searches
			WHERE user_id = $1
			ORDER BY searched_at DESC
			LIMIT $2
		)
	`, userID, keep)
	return err
}

func (r *RecentSearchRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM recent_searches WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
