package routes

import (
	"github.com/anjiri1684/vedic_numerology/handlers"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", handlers.SignUp)
	auth.Post("/signin", handlers.SignIn)
	auth.Post("/signout", middleware.Protected(), handlers.SignOut)
	auth.Get("/session", middleware.Protected(), handlers.GetSession)
}
