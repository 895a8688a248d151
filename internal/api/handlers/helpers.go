package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

// parseBody decodes and validates the request body. It returns a non-nil
// fiber error response when the handler should stop.
func parseBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := transfer.Validate(dst); fields != nil {
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      "Validation failed",
			"error_kind": "validation",
			"fields":     fields,
		})
	}
	return true, nil
}

// respondError maps workflow errors onto HTTP responses. Every kind carries
// its own error_kind so clients never have to parse messages.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr *composer.ValidationError
		uerr *composer.UploadError
		warn *composer.ConnectionWarning
		unk  *composer.UnknownOutcomeError
	)

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      verr.Message,
			"error_kind": "validation",
			"field":      verr.Field,
		})
	case errors.As(err, &uerr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":      uerr.Error(),
			"error_kind": "upload_failed",
		})
	case errors.As(err, &warn):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      warn.Error(),
			"error_kind": "connection_warning",
			"platforms":  warn.Platforms,
		})
	case errors.Is(err, composer.ErrSubmissionInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      err.Error(),
			"error_kind": "in_flight",
		})
	case errors.As(err, &unk):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error":      unk.Error(),
			"error_kind": "unknown_outcome",
		})
	case errors.Is(err, composer.ErrParameterLocked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      err.Error(),
			"error_kind": "parameter_locked",
		})
	case errors.Is(err, composer.ErrSessionNotFound),
		errors.Is(err, composer.ErrPostNotFound),
		errors.Is(err, composer.ErrUnknownParameter):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":      err.Error(),
			"error_kind": "not_found",
		})
	}

	slog.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
