package routes

import (
	"github.com/anjiri1684/vedic_numerology/handlers"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile/me", middleware.Protected())
	profile.Get("", handlers.GetProfile)
	profile.Put("", handlers.UpdateProfile)

	me := api.Group("/me", middleware.Protected())
	me.Get("/reports", handlers.GetMyReports)
	me.Get("/reports/:reportId/download", handlers.DownloadMyReport)
	me.Get("/payments", handlers.GetMyPayments)
}
