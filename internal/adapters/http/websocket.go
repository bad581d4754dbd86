package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/busfinder/busfinder/internal/adapters/nats"
	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// WebSocketAuth rejects non-upgrade requests and authenticates the socket
// with the token query parameter, since browsers cannot set headers on it.
func WebSocketAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if deps.Verifier == nil {
			return errUnauthorized(c, "authentication not configured")
		}
		uid, err := deps.Verifier.VerifyToken(c.UserContext(), c.Query("token"))
		if err != nil {
			return errUnauthorized(c, "invalid token")
		}
		c.Locals(localsUID, utils.CopyString(uid))
		return c.Next()
	}
}

// WebSocketHandler relays favorites-changed events of the authenticated user
// to the socket until the client disconnects.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		uid, _ := c.Locals(localsUID).(string)
		log := slog.Default().With("remote_addr", c.RemoteAddr().String(), "user_id", uid)
		if nc == nil {
			log.Warn("ws rejected: nats not configured")
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subject := natsadapter.SubjectFavoritesChanged + natsadapter.SubjectToken(uid)
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			log.Error("ws subscribe failed", "subject", subject, "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()
		_ = writeJSON(map[string]string{"status": "subscribed", "channel": "favorites"})

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// The feed is server to client only; reading detects the disconnect.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("ws client disconnected")
	}
}
