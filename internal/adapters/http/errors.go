package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
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

// writeError maps a usecase error onto the matching HTTP status.
func writeError(c *fiber.Ctx, err error) error {
	var (
		usage    *domain.UsageError
		notFound *domain.NotFoundError
		upstream *domain.UpstreamError
	)
	switch {
	case errors.As(err, &usage):
		return errBadRequest(c, usage.Error())
	case errors.As(err, &notFound):
		return errNotFound(c, notFound.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrAlreadyFavorited):
		return errConflict(c, err.Error())
	case errors.As(err, &upstream):
		LoggerFromCtx(c.UserContext()).Error("upstream failure", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusBadGateway, "upstream_error", "catalog backend unavailable")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
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

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}
