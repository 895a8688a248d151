package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/storepost/internal/api/handlers"
)

type Handlers struct {
	Composer *handlers.ComposerHandler
	Posts    *handlers.PostHandler
	Media    *handlers.MediaHandler
	Accounts *handlers.AccountHandler
}

// SetupRoutes mounts the authenticated API under /api.
func SetupRoutes(app *fiber.App, auth fiber.Handler, h Handlers) {
	api := app.Group("/api")
	api.Use(auth)

	sessions := api.Group("/composer/sessions")
	sessions.Post("/", h.Composer.OpenSession)
	sessions.Get("/:id", h.Composer.GetSession)
	sessions.Patch("/:id/draft", h.Composer.PatchDraft)
	sessions.Post("/:id/media", h.Composer.AttachMedia)
	sessions.Delete("/:id/media", h.Composer.ClearMedia)
	sessions.Put("/:id/parameters/:name", h.Composer.SetParameter)
	sessions.Put("/:id/parameters/:name/lock", h.Composer.LockParameter)
	sessions.Post("/:id/generate", h.Composer.Generate)
	sessions.Post("/:id/connections/refresh", h.Composer.RefreshConnections)
	sessions.Post("/:id/submit", h.Composer.Submit)
	sessions.Delete("/:id", h.Composer.CloseSession)

	api.Get("/posts", h.Posts.ListPosts)
	api.Get("/posts/:id", h.Posts.GetPost)
	api.Delete("/posts/:id", h.Posts.RemovePost)

	api.Get("/media", h.Media.ListMedia)

	api.Get("/accounts/status", h.Accounts.Status)
	api.Delete("/accounts/:platform", h.Accounts.Disconnect)
}
