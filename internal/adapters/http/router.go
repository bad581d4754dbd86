package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/busfinder/busfinder/internal/pkg/metrics"
)

// APIVersion is reported in the X-API-Version header.
const APIVersion = "1.0.0"

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	opts := deps.Options.withDefaults()
	limited := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, opts.RequestTimeout)
	}

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        opts.RateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", APIVersion)
		return c.Next()
	})

	// ETag runs after handlers have set Cache-Control, so it sees private responses.
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/stops", limited(ListStopsHandler(deps)))
	v1.Get("/stops/nearby", limited(NearbyStopsHandler(deps)))
	v1.Get("/stops/search", limited(SearchStopsHandler(deps)))
	v1.Get("/stops/:id", limited(GetStopHandler(deps)))
	v1.Get("/stops/:id/lines", limited(StopLinesHandler(deps)))
	v1.Get("/lines", limited(ListLinesHandler(deps)))
	v1.Get("/lines/:id", limited(GetLineHandler(deps)))
	v1.Get("/routes/search", limited(RouteSearchHandler(deps)))

	me := v1.Group("/me", AuthMiddleware(deps))
	me.Get("/profile", limited(GetProfileHandler(deps)))
	me.Post("/profile", limited(CreateProfileHandler(deps)))
	me.Put("/profile", limited(UpdateProfileHandler(deps)))
	me.Get("/favorites", limited(ListFavoritesHandler(deps)))
	me.Post("/favorites", limited(AddFavoriteHandler(deps)))
	me.Get("/favorites/check", limited(CheckFavoriteHandler(deps)))
	me.Delete("/favorites/:id", limited(DeleteFavoriteHandler(deps)))
	me.Get("/recent-searches", limited(ListRecentSearchesHandler(deps)))
	me.Delete("/recent-searches/:id", limited(DeleteRecentSearchHandler(deps)))

	app.Post("/graphql", limited(GraphQLHandler(deps)))

	SetupDocs(app, opts.OpenAPIPath)

	app.Use("/ws", WebSocketAuth(deps))
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
