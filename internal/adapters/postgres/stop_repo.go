package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// CatalogRepo implements ports.CatalogReader and ports.CatalogWriter with pgx.
type CatalogRepo struct {
	db *DB
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const stopColumns = `id, name, lat, lon, address, created_at`

func scanStop(row pgx.Row) (domain.Stop, error) {
	var (
		s        domain.Stop
		lat, lon *float64
	)
	if err := row.Scan(&s.ID, &s.Name, &lat, &lon, &s.Address, &s.CreatedAt); err != nil {
		return s, err
	}
	if lat != nil && lon != nil {
		s.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return s, nil
}

// GetStopByID returns a stop by id.
func (r *CatalogRepo) GetStopByID(ctx context.Context, id string) (*domain.Stop, error) {
	s, err := scanStop(r.db.Pool.QueryRow(ctx,
		`SELECT `+stopColumns+` FROM stops WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "stop", id)
	}
	return &s, nil
}

// ListAllStops returns every stop ordered by name.
func (r *CatalogRepo) ListAllStops(ctx context.Context) ([]domain.Stop, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+stopColumns+` FROM stops ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0)
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// UpsertStops inserts or updates stops using pgx.Batch.
func (r *CatalogRepo) UpsertStops(ctx context.Context, stops []domain.Stop) error {
	batch := &pgx.Batch{}
	for _, s := range stops {
		var lat, lon *float64
		if s.Location != nil {
			lat, lon = &s.Location.Lat, &s.Location.Lon
		}
		batch.Queue(`
			INSERT INTO stops (id, name, lat, lon, address, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
			    address = EXCLUDED.address
		`, s.ID, s.Name, lat, lon, s.Address, s.CreatedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range stops {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
