package routes

import (
	"github.com/anjiri1684/vedic_numerology/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	// path the checkout page has always called
	app.Post("/api/payment/create-order", handlers.CreateGatewayOrder)

	api := app.Group("/api/v1")

	payments := api.Group("/payments")
	payments.Post("/create-order", handlers.CreateGatewayOrder)
	payments.Post("/webhook", handlers.HandlePaymentWebhook)
}
