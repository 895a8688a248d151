package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/internal/service"
)

const maxListLimit = 200

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	posts, err := h.s.List(c.Context(), userID, repository.PostFilter{
		StoreID: c.Query("store_id"),
		Status:  models.PostStatus(c.Query("status")),
		Limit:   uint64(limit),
	})
	if err != nil {
		return respondError(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.s.PostInfo(c.Context(), GetUserID(c), int64(postID))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), GetUserID(c), int64(postID)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
