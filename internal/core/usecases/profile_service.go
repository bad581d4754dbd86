package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/pkg/validation"
)

// ProfileUpdate carries the optional fields of a profile update.
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// ProfileService manages user profiles.
type ProfileService struct {
	profiles ports.ProfileRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles ports.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Create stores a new profile for uid.
func (s *ProfileService) Create(ctx context.Context, uid, email, fullName string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if uid == "" {
		return nil, domain.NewUsageError("user id is required")
	}
	if err := validation.Var(email, "required,email"); err != nil {
		return nil, domain.NewUsageError("a valid email is required")
	}
	if fullName == "" {
		return nil, domain.NewUsageError("full name is required")
	}

	now := time.Now().UTC()
	p := &domain.UserProfile{UID: uid, Email: email, FullName: fullName, CreatedAt: now, UpdatedAt: now}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, domain.Upstream("create profile", err)
	}
	return p, nil
}

// Get returns the profile of uid.
func (s *ProfileService) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "profile", Key: uid}
		}
		return nil, domain.Upstream("get profile", err)
	}
	return p, nil
}

// Update applies the non-nil fields of u to the profile of uid.
func (s *ProfileService) Update(ctx context.Context, uid string, u ProfileUpdate) (*domain.UserProfile, error) {
	if u.FullName != nil {
		trimmed := strings.TrimSpace(*u.FullName)
		u.FullName = &trimmed
	}
	if u.Email != nil {
		trimmed := strings.TrimSpace(*u.Email)
		u.Email = &trimmed
	}
	if err := validation.Struct(u); err != nil {
		return nil, domain.NewUsageError("%s", err.Error())
	}

	p, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, domain.Upstream("update profile", err)
	}
	return p, nil
}
