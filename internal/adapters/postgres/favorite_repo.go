package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// FavoriteRepo implements ports.FavoriteRepository.
type FavoriteRepo struct {
	db *DB
}

func NewFavoriteRepo(db *DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

const favoriteColumns = `id, user_id, origin_stop_id, origin_stop_name, destination_stop_id,
	destination_stop_name, line_id, line_number, line_name, created_at`

func scanFavorite(row pgx.Row) (domain.FavoriteRoute, error) {
	var f domain.FavoriteRoute
	err := row.Scan(&f.ID, &f.UserID, &f.OriginStopID, &f.OriginStopName, &f.DestinationStopID,
		&f.DestinationStopName, &f.LineID, &f.LineNumber, &f.LineName, &f.CreatedAt)
	return f, err
}

func (r *FavoriteRepo) Create(ctx context.Context, f *domain.FavoriteRoute) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO favorite_routes (`+favoriteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, f.ID, f.UserID, f.OriginStopID, f.OriginStopName, f.DestinationStopID,
		f.DestinationStopName, f.LineID, f.LineNumber, f.LineName, f.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyFavorited
	}
	return err
}

func (r *FavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteRoute, error) {
	return r.query(ctx, `
		SELECT `+favoriteColumns+` FROM favorite_routes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (r *FavoriteRepo) Find(ctx context.Context, userID, originStopID, destinationStopID, lineID string) ([]domain.FavoriteRoute, error) {
	return r.query(ctx, `
		SELECT `+favoriteColumns+` FROM favorite_routes
		WHERE user_id = $1 AND origin_stop_id = $2 AND destination_stop_id = $3
		  AND ($4 = '' OR line_id = $4)
		ORDER BY created_at DESC
	`, userID, originStopID, destinationStopID, lineID)
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM favorite_routes WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FavoriteRepo) query(ctx context.Context, sql string, args ...any) ([]domain.FavoriteRoute, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.FavoriteRoute, 0)
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
