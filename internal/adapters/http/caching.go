package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type cacheRule struct {
	prefix string
	exact  bool
	value  string
}

// cacheRules are checked in order; the first match wins.
var cacheRules = []cacheRule{
	{prefix: "/v1/health", exact: true, value: "public, max-age=10"},
	{prefix: "/v1/ready", exact: true, value: "no-cache"},
	{prefix: "/metrics", exact: true, value: "no-cache"},
	{prefix: "/v1/me/", value: "private, no-store"},
	{prefix: "/v1/routes/search", value: "public, max-age=60"},
	{prefix: "/v1/stops/nearby", value: "public, max-age=300"},
	{prefix: "/v1/stops/search", value: "public, max-age=300"},
	{prefix: "/v1/stops/", value: "public, max-age=600"},
	{prefix: "/v1/lines/", value: "public, max-age=600"},
	{prefix: "/v1/", value: "public, max-age=300"},
}

// CachingMiddleware fills in Cache-Control on successful GET responses when
// the handler did not set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || c.Method() != fiber.MethodGet {
			return err
		}
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return nil
		}
		if c.Response().StatusCode() >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return nil
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return nil
	}
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if (r.exact && path == r.prefix) || (!r.exact && strings.HasPrefix(path, r.prefix)) {
			return r.value
		}
	}
	return ""
}
