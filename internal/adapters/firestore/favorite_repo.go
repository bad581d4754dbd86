package firestoreadapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// FavoriteRepo implements ports.FavoriteRepository on users/{uid}/favoriteRoutes.
type FavoriteRepo struct {
	c *Client
}

func NewFavoriteRepo(c *Client) *FavoriteRepo { return &FavoriteRepo{c: c} }

func (r *FavoriteRepo) col(userID string) *firestore.CollectionRef {
	return r.c.userDoc(userID).Collection(favoritesCollection)
}

// Create stores f under an id derived from its stops and line, so the
// document create itself rejects a second copy.
func (r *FavoriteRepo) Create(ctx context.Context, f *domain.FavoriteRoute) error {
	ref := r.col(f.UserID).Doc(favoriteDocID(f.OriginStopID, f.DestinationStopID, f.LineID))
	if _, err := ref.Create(ctx, favoriteToDoc(f)); err != nil {
		return alreadyFavorited(err)
	}
	f.ID = ref.ID
	return nil
}

// favoriteDocID joins the escaped parts with '|', which PathEscape always
// escapes, so distinct triples never share an id and no id contains '/'.
func favoriteDocID(originStopID, destinationStopID, lineID string) string {
	return strings.Join([]string{
		url.PathEscape(originStopID),
		url.PathEscape(destinationStopID),
		url.PathEscape(lineID),
	}, "|")
}

func alreadyFavorited(err error) error {
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %v", domain.ErrAlreadyFavorited, err)
	}
	return err
}

func (r *FavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteRoute, error) {
	return collect(r.col(userID).OrderBy("createdAt", firestore.Desc).Documents(ctx))
}

func (r *FavoriteRepo) Find(ctx context.Context, userID, originStopID, destinationStopID, lineID string) ([]domain.FavoriteRoute, error) {
	q := r.col(userID).
		Where("originStopId", "==", originStopID).
		Where("destinationStopId", "==", destinationStopID)
	if lineID != "" {
		q = q.Where("lineId", "==", lineID)
	}
	return collect(q.Documents(ctx))
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, id string) error {
	_, err := r.col(userID).Doc(id).Delete(ctx, firestore.Exists)
	return notFound(err, "favorite", id)
}

func collect(it *firestore.DocumentIterator) ([]domain.FavoriteRoute, error) {
	defer it.Stop()
	out := make([]domain.FavoriteRoute, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list favorites: %w", err)
		}
		var d favoriteDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode favorite %s: %w", snap.Ref.ID, err)
		}
		out = append(out, d.toDomain(snap.Ref.ID))
	}
}
