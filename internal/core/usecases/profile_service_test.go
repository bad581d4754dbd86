package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/core/usecases"
)

func TestProfileService_Create(t *testing.T) {
	var stored *domain.UserProfile
	repo := &mockProfiles{
		createFn: func(ctx context.Context, p *domain.UserProfile) error {
			stored = p
			return nil
		},
	}
	svc := usecases.NewProfileService(repo)

	p, err := svc.Create(context.Background(), "u1", " rider@example.com ", "Ana Rider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != p || p.Email != "rider@example.com" {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestProfileService_Create_InvalidEmail(t *testing.T) {
	svc := usecases.NewProfileService(&mockProfiles{})

	_, err := svc.Create(context.Background(), "u1", "nope", "Ana")
	var ue *domain.UsageError
	if !errors.As(err, &ue) {
		t.Errorf("expected UsageError, got %v", err)
	}
}

func TestProfileService_Get_NotFound(t *testing.T) {
	svc := usecases.NewProfileService(&mockProfiles{})

	_, err := svc.Get(context.Background(), "u1")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "profile" {
		t.Errorf("expected profile not found, got %v", err)
	}
}

func TestProfileService_Update(t *testing.T) {
	repo := &mockProfiles{
		getFn: func(ctx context.Context, uid string) (*domain.UserProfile, error) {
			return &domain.UserProfile{UID: uid, Email: "old@example.com", FullName: "Old"}, nil
		},
	}
	svc := usecases.NewProfileService(repo)

	name := "  New Name "
	p, err := svc.Update(context.Background(), "u1", usecases.ProfileUpdate{FullName: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FullName != "New Name" || p.Email != "old@example.com" {
		t.Errorf("unexpected profile: %+v", p)
	}

	bad := "broken"
	_, err = svc.Update(context.Background(), "u1", usecases.ProfileUpdate{Email: &bad})
	var ue *domain.UsageError
	if !errors.As(err, &ue) {
		t.Errorf("expected UsageError, got %v", err)
	}
}
