package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/storepost/internal/composer"
)

type MediaHandler struct {
	media composer.MediaStore
}

func NewMediaHandler(media composer.MediaStore) *MediaHandler {
	return &MediaHandler{media: media}
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	items, err := h.media.List(c.Context(), GetUserID(c), c.Query("store_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}
