package handlers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/anjiri1684/vedic_numerology/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentLimit = 5

func loadSnapshot(c *fiber.Ctx) (*services.AdminSnapshot, error) {
	snap, err := services.LoadAdminSnapshot(c.UserContext(), database.DB)
	if err != nil {
		zap.L().Error("🔥 Failed to load admin data", zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load data"})
	}
	return snap, nil
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}

	recentOrders := snap.Orders
	if len(recentOrders) > recentLimit {
		recentOrders = recentOrders[:recentLimit]
	}
	recentReports := snap.Reports
	if len(recentReports) > recentLimit {
		recentReports = recentReports[:recentLimit]
	}

	return c.JSON(fiber.Map{
		"stats":          services.ComputeStats(snap),
		"recent_orders":  recentOrders,
		"recent_reports": recentReports,
	})
}

func GetAllUsers(c *fiber.Ctx) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	return c.JSON(snap.Users)
}

func AdminGetReports(c *fiber.Ctx) error {
	status := strings.ToLower(c.Query("status"))
	if status != "" && status != models.PaymentStatusCompleted && status != models.PaymentStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be completed or pending"})
	}

	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	return c.JSON(services.FilterReportsByStatus(snap.Reports, status))
}

func AdminGetOrders(c *fiber.Ctx) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	return c.JSON(services.FilterOrders(snap.Orders, c.Query("q")))
}

func AdminGetPayments(c *fiber.Ctx) error {
	history, err := services.ListPaymentHistory(c.UserContext(), database.DB, c.Query("user_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(history)
}

func ExportOrders(c *fiber.Ctx) error {
	snap, err := loadSnapshot(c)
	if snap == nil {
		return err
	}
	orders := services.FilterOrders(snap.Orders, c.Query("q"))

	b := new(bytes.Buffer)
	if err := services.WriteOrdersCSV(b, orders); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"orders_%s.csv\"", time.Now().Format("2006-01-02")))
	return c.Send(b.Bytes())
}

func ListReconciliationTasks(c *fiber.Ctx) error {
	status := c.Query("status", models.TaskStatusOpen)
	if status == "all" {
		status = ""
	}
	tasks, err := services.ListReconciliationTasks(c.UserContext(), database.DB, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(tasks)
}

func RetryReconciliation(c *fiber.Ctx) error {
	summary, err := services.RetryOpenTasks(c.UserContext(), database.DB)
	if err != nil {
		zap.L().Error("🔥 Manual reconciliation run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Reconciliation failed"})
	}
	return c.JSON(summary)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + strings.Repeat("*", len(key)-8)
}

// GetPaymentSettings shows which gateway credentials are configured. Secrets
// are never returned.
func GetPaymentSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"gateway":                   models.GatewayRazorpay,
		"key_id":                    maskKey(config.Config("RAZORPAY_KEY_ID")),
		"key_secret_configured":     config.Config("RAZORPAY_KEY_SECRET") != "",
		"webhook_secret_configured": config.Config("RAZORPAY_WEBHOOK_SECRET") != "",
		"verify_signature":          config.ConfigBool("RAZORPAY_VERIFY_SIGNATURE", true),
		"report_price":              config.GetStorefront().ReportPrice,
		"currency":                  config.GetStorefront().Currency,
	})
}

// ServeLiveFeed streams report and payment events to an admin. The first
// message must be {"type":"auth","token":"..."} with an admin token.
func ServeLiveFeed(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := middleware.ParseToken(authMsg.Token)
	if err != nil || claims["role"] != models.RoleAdmin {
		zap.L().Warn("live feed auth failed", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	if err := c.WriteJSON(fiber.Map{"type": "ready"}); err != nil {
		c.Close()
		return
	}

	client := &websocket.Client{ID: uuid.New(), Conn: c}
	if !websocket.Join(client) {
		_ = c.WriteJSON(fiber.Map{"error": "Live feed is shutting down"})
		c.Close()
		return
	}
	defer func() {
		websocket.Leave(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				zap.L().Debug("live feed read error", zap.Error(err))
			}
			return
		}
	}
}
