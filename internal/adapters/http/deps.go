package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/busfinder/busfinder/internal/core/ports"
	"github.com/busfinder/busfinder/internal/core/usecases"
)

// Checker reports whether a backing service is reachable.
type Checker func(ctx context.Context) error

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Stops     *usecases.StopService
	Lines     *usecases.LineService
	Search    *usecases.SearchService
	Favorites *usecases.FavoriteService
	History   *usecases.HistoryService
	Profiles  *usecases.ProfileService
	Verifier  ports.TokenVerifier
	NATS      *nats.Conn

	// Checks are run by /v1/ready, keyed by component name.
	Checks map[string]Checker

	Options Options
}

// Options tunes the router. Zero values fall back to defaults.
type Options struct {
	RequestTimeout time.Duration
	RateLimit      int // requests per minute per IP
	OpenAPIPath    string
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 15 * time.Second
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 120
	}
	if o.OpenAPIPath == "" {
		o.OpenAPIPath = DefaultOpenAPIPath
	}
	return o
}
