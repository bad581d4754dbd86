package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// Subjects.
const (
	SubjectSearchRecorded   = "busfinder.history.recorded."
	SubjectFavoritesChanged = "busfinder.favorites.changed."
	SubjectCatalogUpdated   = "busfinder.catalog.updated"
)

// FavoritesChangedEvent is relayed to connected clients of the same user.
type FavoritesChangedEvent struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// CatalogUpdatedEvent announces a finished catalog import.
type CatalogUpdatedEvent struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// Publisher implements ports.EventPublisher and ports.SearchRecorder using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:       "SEARCH_HISTORY",
			Subjects:   []string{SubjectSearchRecorded + ">"},
			Retention:  nats.WorkQueuePolicy,
			MaxAge:     24 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		},
		{
			Name:      "CATALOG_EVENTS",
			Subjects:  []string{SubjectCatalogUpdated},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			MaxMsgs:   100,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishSearchRecorded queues a history entry for the historian.
func (p *Publisher) PublishSearchRecorded(ctx context.Context, s *domain.RecentSearch) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSearchRecorded+SubjectToken(s.UserID), data,
		nats.Context(ctx), nats.MsgId(s.ID))
	return err
}

// RecordSearch implements ports.SearchRecorder by deferring to the historian.
func (p *Publisher) RecordSearch(ctx context.Context, s *domain.RecentSearch) error {
	return p.PublishSearchRecorded(ctx, s)
}

// PublishFavoritesChanged notifies live clients. It uses core NATS since
// nobody needs the event once the client is gone.
func (p *Publisher) PublishFavoritesChanged(ctx context.Context, userID string) error {
	data, err := json.Marshal(FavoritesChangedEvent{UserID: userID, ChangedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectFavoritesChanged+SubjectToken(userID), data)
}

// PublishCatalogUpdated announces that cached catalog snapshots are stale.
func (p *Publisher) PublishCatalogUpdated(ctx context.Context) error {
	data, err := json.Marshal(CatalogUpdatedEvent{UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectCatalogUpdated, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for relays and health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// SubjectToken makes s safe to use as a single subject token.
func SubjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
