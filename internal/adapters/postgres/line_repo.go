package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// ListActiveLines returns active lines in insertion order.
func (r *CatalogRepo) ListActiveLines(ctx context.Context) ([]domain.Line, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, number, name, stop_ids, active, created_at, updated_at
		FROM lines
		WHERE active
		ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.Line, 0)
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.Number, &l.Name, &l.Stops, &l.Active, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpsertLines inserts or updates lines using pgx.Batch. Existing lines keep
// their position in catalog order.
func (r *CatalogRepo) UpsertLines(ctx context.Context, lines []domain.Line) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO lines (id, number, name, stop_ids, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET number = EXCLUDED.number, name = EXCLUDED.name, stop_ids = EXCLUDED.stop_ids,
			    active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
		`, l.ID, l.Number, l.Name, l.Stops, l.Active, l.CreatedAt, l.UpdatedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
