package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSearchRecorded consumes history entries with a durable consumer
// shared by all historian replicas.
func (s *Subscriber) SubscribeSearchRecorded(ctx context.Context, handler func(ctx context.Context, rs *domain.RecentSearch) error) error {
	sub, err := s.js.QueueSubscribe(SubjectSearchRecorded+">", "historian", func(msg *nats.Msg) {
		ack(ctx, msg, decodeSearch(ctx, msg.Data, handler))
	},
		nats.Durable("historian"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeCatalogUpdated delivers new catalog events to this process only.
func (s *Subscriber) SubscribeCatalogUpdated(ctx context.Context, handler func(ctx context.Context) error) error {
	sub, err := s.js.Subscribe(SubjectCatalogUpdated, func(msg *nats.Msg) {
		ack(ctx, msg, handler(ctx))
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}

// errPoison marks messages that can never be processed; they are terminated instead of redelivered.
type errPoison struct{ err error }

func (e errPoison) Error() string { return "undecodable message: " + e.err.Error() }

func decodeSearch(ctx context.Context, data []byte, handler func(ctx context.Context, rs *domain.RecentSearch) error) error {
	var rs domain.RecentSearch
	if err := json.Unmarshal(data, &rs); err != nil {
		return errPoison{err}
	}
	return handler(ctx, &rs)
}

func ack(ctx context.Context, msg *nats.Msg, err error) {
	switch {
	case err == nil:
		_ = msg.Ack()
	case isPoison(err):
		slog.WarnContext(ctx, "dropping message", "subject", msg.Subject, "error", err)
		_ = msg.Term()
	default:
		slog.WarnContext(ctx, "message handler failed", "subject", msg.Subject, "error", err)
		_ = msg.Nak()
	}
}

func isPoison(err error) bool {
	var p errPoison
	var ue *domain.UsageError
	return errors.As(err, &p) || errors.As(err, &ue)
}
