package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/apperrors"
)

// respondError translates a service error into an {error: string}
// body with the status code for its kind. Errors outside the taxonomy
// surface as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrInsufficientStock),
		errors.Is(err, apperrors.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}
