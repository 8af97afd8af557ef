package routes

import (
	"github.com/anjiri1684/vedic_numerology/handlers"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/admin/login", handlers.AdminLogin)

	api.Use("/admin/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/admin/ws", websocket.New(handlers.ServeLiveFeed))

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Post("/logout", handlers.SignOut)
	admin.Get("/dashboard", handlers.GetDashboardAnalytics)
	admin.Get("/users", handlers.GetAllUsers)
	admin.Get("/reports", handlers.AdminGetReports)
	admin.Get("/payments", handlers.AdminGetPayments)

	orders := admin.Group("/orders")
	orders.Get("", handlers.AdminGetOrders)
	orders.Get("/export", handlers.ExportOrders)

	reconciliation := admin.Group("/reconciliation")
	reconciliation.Get("", handlers.ListReconciliationTasks)
	reconciliation.Post("/retry", handlers.RetryReconciliation)

	admin.Get("/settings/payment", handlers.GetPaymentSettings)
}
