package apierror

import "github.com/gofiber/fiber/v2"

// Error codes returned in the "code" field of every error response.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// Send writes a JSON error envelope with the given HTTP status.
func Send(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusForbidden, CodeForbidden, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusNotFound, CodeNotFound, message)
}

func Validation(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusBadRequest, CodeValidation, message)
}

// InvalidTransition rejects a status change whose precondition does not
// hold for the record's current status.
func InvalidTransition(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusBadRequest, CodeInvalidTransition, message)
}

// Conflict reports a duplicate record or a conditional write that
// matched nothing because the record changed underneath the request.
func Conflict(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusConflict, CodeConflict, message)
}

func Internal(c *fiber.Ctx, message string) error {
	return Send(c, fiber.StatusInternalServerError, CodeInternal, message)
}
