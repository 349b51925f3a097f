package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type cacheRule struct {
	path   string
	prefix bool
	value  string
}

// cacheRules are checked in order; the first match wins. Session state
// changes with every interaction and must never be stored.
var cacheRules = []cacheRule{
	{path: "/v1/health", value: "public, max-age=10"},
	{path: "/v1/ready", value: "public, max-age=10"},
	{path: "/metrics", value: "no-cache"},
	{path: "/graphql", value: "private, max-age=0"},
	{path: "/v1/sessions", prefix: true, value: "no-store"},
	{path: "/v1/resolve", value: "public, max-age=300"},
	{path: "/v1/preferences", prefix: true, value: "private, no-cache"},
	{path: "/docs", prefix: true, value: "public, max-age=3600"},
	{path: "/v1/", prefix: true, value: "public, max-age=60"},
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if path == r.path || (r.prefix && strings.HasPrefix(path, r.path)) {
			return r.value
		}
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses that did not set
// their own.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return err
	}
}
