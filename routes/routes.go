package routes

import "github.com/gofiber/fiber/v2"

func Setup(app *fiber.App) {
	PublicRoutes(app)
	AuthRoutes(app)
	ProfileRoutes(app)
	ReportRoutes(app)
	PaymentRoutes(app)
	AdminRoutes(app)
}
