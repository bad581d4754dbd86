package postgres

import (
	"context"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// ProfileRepo implements ports.ProfileRepository.
type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) Create(ctx context.Context, p *domain.UserProfile) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO user_profiles (uid, email, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uid) DO UPDATE
		SET email = EXCLUDED.email, full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at
	`, p.UID, p.Email, p.FullName, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProfileRepo) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := r.db.Pool.QueryRow(ctx, `
		SELECT uid, email, full_name, created_at, updated_at
		FROM user_profiles WHERE uid = $1
	`, uid).Scan(&p.UID, &p.Email, &p.FullName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "profile", uid)
	}
	return &p, nil
}

func (r *ProfileRepo) Update(ctx context.Context, p *domain.UserProfile) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE user_profiles SET email = $2, full_name = $3, updated_at = $4 WHERE uid = $1
	`, p.UID, p.Email, p.FullName, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
