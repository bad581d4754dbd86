package firestoreadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/busfinder/busfinder/internal/core/domain"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// CatalogRepo implements ports.CatalogReader and ports.CatalogWriter on the
// stops and buses collections. Documents that fail validation are skipped.
type CatalogRepo struct {
	c *Client
}

func NewCatalogRepo(c *Client) *CatalogRepo { return &CatalogRepo{c: c} }

// ListActiveLines returns buses with isActive set, in document order.
func (r *CatalogRepo) ListActiveLines(ctx context.Context) ([]domain.Line, error) {
	it := r.c.fs.Collection(linesCollection).Where("isActive", "==", true).Documents(ctx)
	defer it.Stop()

	lines := make([]domain.Line, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list buses: %w", err)
		}

		var d busDoc
		if err := snap.DataTo(&d); err != nil {
			skipMalformed(ctx, "line", snap.Ref.ID, err)
			continue
		}
		l, err := d.toDomain(snap.Ref.ID)
		if err != nil {
			skipMalformed(ctx, "line", snap.Ref.ID, err)
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// GetStopByID returns a stop. Malformed stop documents are reported as not found.
func (r *CatalogRepo) GetStopByID(ctx context.Context, id string) (*domain.Stop, error) {
	snap, err := r.c.fs.Collection(stopsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "stop", id)
	}

	var d stopDoc
	if err := snap.DataTo(&d); err != nil {
		skipMalformed(ctx, "stop", id, err)
		return nil, fmt.Errorf("stop %s: %w", id, domain.ErrNotFound)
	}
	s, err := d.toDomain(id)
	if err != nil {
		skipMalformed(ctx, "stop", id, err)
		return nil, fmt.Errorf("stop %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

// ListAllStops returns every well-formed stop in document order.
func (r *CatalogRepo) ListAllStops(ctx context.Context) ([]domain.Stop, error) {
	it := r.c.fs.Collection(stopsCollection).Documents(ctx)
	defer it.Stop()

	stops := make([]domain.Stop, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list stops: %w", err)
		}

		var d stopDoc
		if err := snap.DataTo(&d); err != nil {
			skipMalformed(ctx, "stop", snap.Ref.ID, err)
			continue
		}
		s, err := d.toDomain(snap.Ref.ID)
		if err != nil {
			skipMalformed(ctx, "stop", snap.Ref.ID, err)
			continue
		}
		stops = append(stops, s)
	}
	return stops, nil
}

// UpsertStops writes stops with a BulkWriter, replacing existing documents.
func (r *CatalogRepo) UpsertStops(ctx context.Context, stops []domain.Stop) error {
	col := r.c.fs.Collection(stopsCollection)
	return r.bulkSet(ctx, len(stops), func(i int) (*firestore.DocumentRef, any) {
		return col.Doc(stops[i].ID), stopToDoc(stops[i])
	})
}

// UpsertLines writes lines with a BulkWriter, replacing existing documents.
func (r *CatalogRepo) UpsertLines(ctx context.Context, lines []domain.Line) error {
	col := r.c.fs.Collection(linesCollection)
	return r.bulkSet(ctx, len(lines), func(i int) (*firestore.DocumentRef, any) {
		return col.Doc(lines[i].ID), lineToDoc(lines[i])
	})
}

func (r *CatalogRepo) bulkSet(ctx context.Context, n int, item func(i int) (*firestore.DocumentRef, any)) error {
	bw := r.c.fs.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, n)
	for i := 0; i < n; i++ {
		ref, data := item(i)
		job, err := bw.Set(ref, data)
		if err != nil {
			bw.End()
			return fmt.Errorf("queue %s: %w", ref.Path, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func skipMalformed(ctx context.Context, kind, id string, err error) {
	metrics.MalformedCatalogDocs.WithLabelValues(kind).Inc()
	slog.WarnContext(ctx, "skipping malformed catalog document", "kind", kind, "id", id, "error", err)
}
