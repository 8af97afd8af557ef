package routes

import (
	"github.com/anjiri1684/vedic_numerology/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/pricing", handlers.GetPricing)
	api.Post("/contact", handlers.SubmitContact)
}
