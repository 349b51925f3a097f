package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/walkies/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`           // Error code: validation_error, not_found, selection_full, etc.
	Message   string `json:"message"`        // Human-readable message
	Hint      string `json:"hint,omitempty"` // Follow-up the user can take
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

type errorMapping struct {
	target error
	status int
	code   string
	msg    string
}

// Order matters: the first sentinel matched wins.
var errorMappings = []errorMapping{
	{domain.ErrValidation, 400, "validation_error", "Invalid request."},
	{domain.ErrLocationNotFound, 422, "location_not_found", domain.MsgLocationNotFound},
	{domain.ErrPermissionDenied, 403, "permission_denied", domain.MsgPermissionBlocked},
	{domain.ErrLocationUnavailable, 503, "location_unavailable", domain.MsgLocationFailed},
	{domain.ErrLocationRequired, 428, "location_required", domain.MsgLocationRequired},
	{domain.ErrUpstream, 502, "upstream_unavailable", domain.MsgDirectionsFailed},
	{domain.ErrSelectionFull, 409, "selection_full", "Selection is full."},
	{domain.ErrConflict, 409, "conflict", "Conflict."},
	{domain.ErrNoRoute, 404, "no_route", domain.MsgNoRoute},
	{domain.ErrNotFound, 404, "not_found", "Not found."},
	{domain.ErrStaleResult, 409, "stale_result", "A newer request superseded this one."},
	{domain.ErrInvalidTransition, 409, "invalid_state", "The map is not in a state that allows this."},
}

// errFromDomain maps a use case error onto an APIError, preferring the
// user-facing message carried by the error.
func errFromDomain(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.msg
		if um, ok := domain.UserMessage(err); ok {
			msg = um
		}
		reqID, _ := c.Locals("requestid").(string)
		apiErr := APIError{Status: m.status, Code: m.code, Message: msg, RequestID: reqID}
		if errors.Is(err, domain.ErrPermissionDenied) {
			apiErr.Hint = domain.MsgEnterManually
		}
		return c.Status(m.status).JSON(apiErr)
	}
	LoggerFromCtx(c.UserContext()).Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
	return errInternal(c, "internal error")
}
