// handlers/errors.go
package handlers

import (
	"errors"

	"plated-rewards/middleware"
	"plated-rewards/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps engine error classes to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, msg string, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

// selfOnly runs next only when :user_id is the authenticated caller.
func selfOnly(next func(c *fiber.Ctx, userID string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("user_id")
		if userID != middleware.UserID(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
				"cause": "callers may only act on their own gamification record",
			})
		}
		return next(c, userID)
	}
}
