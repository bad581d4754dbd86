package firestoreadapter

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// RecentSearchRepo implements ports.RecentSearchRepository on users/{uid}/recentSearches.
type RecentSearchRepo struct {
	c *Client
}

func NewRecentSearchRepo(c *Client) *RecentSearchRepo { return &RecentSearchRepo{c: c} }

func (r *RecentSearchRepo) col(userID string) *firestore.CollectionRef {
	return r.c.userDoc(userID).Collection(recentsCollection)
}

// Replace deletes entries for the same pair and adds s in one transaction.
func (r *RecentSearchRepo) Replace(ctx context.Context, s *domain.RecentSearch) error {
	col := r.col(s.UserID)
	ref := col.NewDoc()
	if s.ID != "" {
		ref = col.Doc(s.ID)
	}

	err := r.c.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := col.
			Where("originStopId", "==", s.OriginStopID).
			Where("destinationStopId", "==", s.DestinationStopID)
		dups, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		for _, d := range dups {
			if d.Ref.ID == ref.ID {
				continue
			}
			if err := tx.Delete(d.Ref); err != nil {
				return err
			}
		}
		return tx.Set(ref, recentToDoc(s))
	})
	if err != nil {
		return err
	}
	s.ID = ref.ID
	return nil
}

func (r *RecentSearchRepo) List(ctx context.Context, userID string, limit int) ([]domain.RecentSearch, error) {
	it := r.col(userID).OrderBy("searchedAt", firestore.Desc).Limit(limit).Documents(ctx)
	defer it.Stop()

	out := make([]domain.RecentSearch, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list recent searches: %w", err)
		}
		var d recentDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode recent search %s: %w", snap.Ref.ID, err)
		}
		out = append(out, d.toDomain(snap.Ref.ID))
	}
}

// Trim deletes everything after the newest keep entries.
func (r *RecentSearchRepo) Trim(ctx context.Context, userID string, keep int) error {
	stale, err := r.col(userID).OrderBy("searchedAt", firestore.Desc).Offset(keep).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("find stale searches: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	bw := r.c.fs.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(stale))
	for _, snap := range stale {
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecentSearchRepo) Delete(ctx context.Context, userID, id string) error {
	_, err := r.col(userID).Doc(id).Delete(ctx, firestore.Exists)
	return notFound(err, "recent search", id)
}
