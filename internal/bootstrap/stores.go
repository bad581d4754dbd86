// Package bootstrap opens the backing stores selected by configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"

	"github.com/busfinder/busfinder/internal/adapters/auth"
	firestoreadapter "github.com/busfinder/busfinder/internal/adapters/firestore"
	"github.com/busfinder/busfinder/internal/adapters/postgres"
	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/pkg/config"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// Catalog is the full catalog store: readers for the API, writers for imports.
type Catalog interface {
	ports.CatalogReader
	ports.CatalogWriter
}

// Stores groups the repositories of one catalog backend.
type Stores struct {
	Catalog   Catalog
	Favorites ports.FavoriteRepository
	Recents   ports.RecentSearchRepository
	Profiles  ports.ProfileRepository

	// Ping checks the backend is reachable.
	Ping func(ctx context.Context) error

	app    *firebase.App
	closer func()
}

// Open connects to the backend named by cfg.Catalog.Backend.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		metrics.UpdateDBPoolMetrics(db.Stat())
		return &Stores{
			Catalog:   postgres.NewCatalogRepo(db),
			Favorites: postgres.NewFavoriteRepo(db),
			Recents:   postgres.NewRecentSearchRepo(db),
			Profiles:  postgres.NewProfileRepo(db),
			Ping: func(ctx context.Context) error {
				metrics.UpdateDBPoolMetrics(db.Stat())
				return db.Ping(ctx)
			},
			closer: db.Close,
		}, nil

	case config.BackendFirestore:
		app, err := firestoreadapter.NewApp(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
		fs, err := firestoreadapter.New(ctx, app)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Catalog:   firestoreadapter.NewCatalogRepo(fs),
			Favorites: firestoreadapter.NewFavoriteRepo(fs),
			Recents:   firestoreadapter.NewRecentSearchRepo(fs),
			Profiles:  firestoreadapter.NewProfileRepo(fs),
			Ping:      fs.Ping,
			app:       app,
			closer: func() {
				if err := fs.Close(); err != nil {
					slog.Warn("firestore close", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
}

// Verifier returns the token verifier for cfg.Auth.Mode. Firebase auth reuses
// the Firestore app when there is one.
func (s *Stores) Verifier(ctx context.Context, cfg *config.Config) (ports.TokenVerifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthHeader:
		slog.Warn("auth mode header: bearer tokens are trusted as user ids")
		return auth.HeaderVerifier{}, nil
	case config.AuthFirebase:
		app := s.app
		if app == nil {
			var err error
			app, err = firestoreadapter.NewApp(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
			if err != nil {
				return nil, err
			}
		}
		return auth.NewFirebaseVerifier(ctx, app)
	default:
		return nil, errors.New("unknown auth mode " + cfg.Auth.Mode)
	}
}

// Close releases the backend connection.
func (s *Stores) Close() {
	if s.closer != nil {
		s.closer()
	}
}
