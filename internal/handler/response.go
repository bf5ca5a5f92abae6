package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/apperror"
)

// respondData wraps a successful response in the standard envelope.
func respondData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

// respondError translates the error taxonomy to a status code. Validation
// and not-found errors carry their message through; anything unexpected is
// logged and surfaced as a generic 500.
func respondError(c *fiber.Ctx, log *zap.SugaredLogger, err error) error {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return respondFailure(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrNotFound):
		return respondFailure(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, apperror.ErrForbidden):
		return respondFailure(c, fiber.StatusForbidden, "forbidden")
	default:
		log.Errorw("request failed", "path", c.OriginalURL(), "err", err)
		return respondFailure(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func respondFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// callerID reads the user id the auth middleware stored on the context.
func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
