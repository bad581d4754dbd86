package firestoreadapter

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// Collection names.
const (
	stopsCollection     = "stops"
	linesCollection     = "buses"
	usersCollection     = "users"
	favoritesCollection = "favoriteRoutes"
	recentsCollection   = "recentSearches"
)

// NewApp initialises a Firebase app for projectID. credentialsFile may be
// empty, in which case application default credentials are used.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

// Client wraps a Firestore client shared by the repositories.
type Client struct {
	fs *firestore.Client
}

// New opens a Firestore client from a Firebase app.
func New(ctx context.Context, app *firebase.App) (*Client, error) {
	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Client{fs: fs}, nil
}

// Ping reads at most one stop to check connectivity.
func (c *Client) Ping(ctx context.Context) error {
	it := c.fs.Collection(stopsCollection).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

// Close releases the client.
func (c *Client) Close() error {
	return c.fs.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// notFound maps a Firestore NotFound status to domain.ErrNotFound.
func notFound(err error, kind, key string) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", kind, key, domain.ErrNotFound)
	}
	return err
}

func (c *Client) userDoc(uid string) *firestore.DocumentRef {
	return c.fs.Collection(usersCollection).Doc(uid)
}
