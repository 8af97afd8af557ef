package routes

import (
	"github.com/anjiri1684/vedic_numerology/handlers"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/gofiber/fiber/v2"
)

func ReportRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	intake := api.Group("/intake", middleware.OptionalAuth())
	intake.Post("", handlers.StartIntake)
	intake.Get("/:sessionId", handlers.GetIntake)
	intake.Post("/:sessionId/next", handlers.IntakeNext)
	intake.Post("/:sessionId/previous", handlers.IntakePrevious)

	reports := api.Group("/reports", middleware.OptionalAuth())
	reports.Post("", handlers.CreateReport)
	reports.Post("/:reportId/payment", handlers.ConfirmPayment)
	reports.Get("/:reportId/confirmation", handlers.GetPaymentConfirmation)
}
