package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sessionIDKey ctxKey = "session_id"
	loggerKey    ctxKey = "logger"
)

const sessionsPrefix = "/v1/sessions/"

// RequestIDLogMiddleware builds a request-scoped *slog.Logger carrying the
// Fiber request ID and, for session routes, the session ID, and stores both
// on the user context for handlers and services.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var attrs []any
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = context.WithValue(ctx, requestIDKey, rid)
			attrs = append(attrs, slog.String("request_id", rid))
		}
		if sid := sessionIDFromPath(c.Path()); sid != "" {
			ctx = context.WithValue(ctx, sessionIDKey, sid)
			attrs = append(attrs, slog.String("session_id", sid))
		}
		if len(attrs) == 0 {
			return c.Next()
		}

		ctx = context.WithValue(ctx, loggerKey, slog.Default().With(attrs...))
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// sessionIDFromPath returns the :sid segment of a session route. Params are
// not bound yet when global middleware runs, so the path is read directly.
func sessionIDFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, sessionsPrefix)
	if !ok {
		return ""
	}
	sid, _, _ := strings.Cut(rest, "/")
	return sid
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// SessionIDFromCtx returns the session ID recorded by RequestIDLogMiddleware.
func SessionIDFromCtx(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}
