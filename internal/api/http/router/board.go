package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/kiavash/daftar/internal/api/http/handler"
)

func (r *Router) registerBoardRoutes(app *fiber.App, h *handler.BoardHandler) {
	app.Get("/", h.Show)
	app.Post("/", h.Submit)
}
