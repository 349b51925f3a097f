package http

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies, version string) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": version,
		})
	}
}

// ReadyHandler checks DB, NATS, and cache connectivity. Only the session
// core is required; every backing service is optional and reported as
// "not configured" when absent.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		var mu sync.Mutex
		checks := map[string]string{
			"database": "not configured",
			"nats":     "not configured",
			"cache":    "not configured",
		}
		allOK := deps.Sessions != nil
		set := func(name, status string, ok bool) {
			mu.Lock()
			defer mu.Unlock()
			checks[name] = status
			if !ok {
				allOK = false
			}
		}

		var g errgroup.Group
		if deps.DB != nil {
			g.Go(func() error {
				if err := deps.DB.Ping(ctx); err != nil {
					set("database", "error: "+err.Error(), false)
				} else {
					set("database", "ok", true)
				}
				return nil
			})
		}
		if deps.Events != nil {
			g.Go(func() error {
				if deps.Events.Connected() {
					set("nats", "ok", true)
				} else {
					set("nats", "disconnected", false)
				}
				return nil
			})
		}
		if deps.Cache != nil {
			g.Go(func() error {
				if err := deps.Cache.Ping(ctx); err != nil {
					set("cache", "error: "+err.Error(), false)
				} else {
					set("cache", "ok", true)
				}
				return nil
			})
		}
		_ = g.Wait()

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
