package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

// Version is reported by the health endpoint and the X-API-Version header.
const Version = "1.0.0"

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", Version)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps, Version))
	app.Get("/v1/ready", ReadyHandler(deps))

	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	v1 := app.Group("/v1")
	v1.Get("/resolve", with(ResolveHandler(deps)))
	v1.Get("/preferences/legend", GetLegendHandler())
	v1.Put("/preferences/legend", SetLegendHandler())

	v1.Post("/sessions", with(CreateSessionHandler(deps)))

	s := v1.Group("/sessions/:sid")
	s.Get("/", with(GetSessionHandler(deps)))
	s.Delete("/", with(DeleteSessionHandler(deps)))

	s.Get("/spaces", with(ListSpacesHandler(deps)))
	s.Post("/spaces", with(AddSpaceHandler(deps)))
	s.Delete("/spaces", with(RemoveSpacesHandler(deps)))
	s.Get("/spaces/:spaceId", with(GetSpaceHandler(deps)))
	s.Patch("/spaces/:spaceId", with(UpdateSpaceHandler(deps)))
	s.Delete("/spaces/:spaceId", with(DeleteSpaceHandler(deps)))

	s.Put("/filters", with(SetFiltersHandler(deps)))

	s.Put("/location", with(SetLocationHandler(deps)))
	s.Delete("/location", with(ClearLocationHandler(deps)))
	s.Post("/location/error", with(LocationErrorHandler(deps)))

	s.Put("/selection/checked/:spaceId", with(CheckSpaceHandler(deps)))
	s.Delete("/selection/checked/:spaceId", with(UncheckSpaceHandler(deps)))
	s.Put("/selection/focus", with(FocusHandler(deps)))
	s.Delete("/selection/focus", with(UnfocusHandler(deps)))

	s.Post("/directions", with(DirectionsHandler(deps)))
	s.Delete("/directions", with(ClearRouteHandler(deps)))

	s.Get("/map", with(MapViewHandler(deps)))
	s.Post("/map/mount", with(MountMapHandler(deps)))
	s.Post("/map/loaded", with(MapLoadedHandler(deps)))
	s.Post("/map/recentre", with(RecentreHandler(deps)))
	s.Delete("/map", with(UnmountMapHandler(deps)))

	if deps.Navigation != nil {
		s.Post("/navigation", with(StartNavigationHandler(deps)))
		s.Post("/navigation/position", with(ReportPositionHandler(deps)))
		s.Delete("/navigation", with(StopNavigationHandler(deps)))
	}

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		sessionID := c.Query("session")
		if sessionID == "" {
			return errBadRequest(c, "session query parameter is required")
		}
		if _, err := deps.Sessions.Get(c.UserContext(), sessionID); err != nil {
			return errFromDomain(c, err)
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.Events)))
}
