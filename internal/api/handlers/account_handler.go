package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/service"
)

type AccountLister interface {
	Accounts(ctx context.Context, userID int64) ([]service.AccountStatus, error)
	Disconnect(ctx context.Context, userID int64, platform models.Platform) error
}

type AccountHandler struct {
	accounts AccountLister
}

func NewAccountHandler(accounts AccountLister) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Status(c *fiber.Ctx) error {
	accounts, err := h.accounts.Accounts(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

func (h *AccountHandler) Disconnect(c *fiber.Ctx) error {
	platform := models.Platform(c.Params("platform"))
	if err := h.accounts.Disconnect(c.Context(), GetUserID(c), platform); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
