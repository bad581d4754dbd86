package firestoreadapter

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// ProfileRepo implements ports.ProfileRepository on users/{uid}.
type ProfileRepo struct {
	c *Client
}

func NewProfileRepo(c *Client) *ProfileRepo { return &ProfileRepo{c: c} }

func (r *ProfileRepo) Create(ctx context.Context, p *domain.UserProfile) error {
	_, err := r.c.userDoc(p.UID).Set(ctx, userDoc{
		UID:       p.UID,
		Email:     p.Email,
		FullName:  p.FullName,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	})
	return err
}

func (r *ProfileRepo) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	snap, err := r.c.userDoc(uid).Get(ctx)
	if err != nil {
		return nil, notFound(err, "profile", uid)
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return &domain.UserProfile{
		UID:       uid,
		Email:     d.Email,
		FullName:  d.FullName,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// Update fails with domain.ErrNotFound when the profile does not exist.
func (r *ProfileRepo) Update(ctx context.Context, p *domain.UserProfile) error {
	_, err := r.c.userDoc(p.UID).Update(ctx, []firestore.Update{
		{Path: "email", Value: p.Email},
		{Path: "fullName", Value: p.FullName},
		{Path: "updatedAt", Value: p.UpdatedAt},
	})
	return notFound(err, "profile", p.UID)
}
