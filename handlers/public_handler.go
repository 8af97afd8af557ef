package handlers

import (
	"strings"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/notifications"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ContactRequest struct {
	Name    string `json:"name" validate:"required,notblank"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required,notblank"`
}

func SubmitContact(c *fiber.Ctx) error {
	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please fill in all required fields"})
	}

	msg := models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	if s := strings.TrimSpace(req.Subject); s != "" {
		msg.Subject = &s
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		zap.L().Error("🔥 Failed to store contact message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}

	sf := config.GetStorefront()
	go notifications.SendEmail(sf.DisplayName, sf.SupportEmail, "New contact message from "+msg.Name,
		notifications.ContactNoticeHTML(notifications.ContactNotice{
			Name:    msg.Name,
			Email:   msg.Email,
			Subject: req.Subject,
			Message: msg.Message,
		}))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Message sent! We'll get back to you soon."})
}

func GetPricing(c *fiber.Ctx) error {
	sf := config.GetStorefront()
	return c.JSON(fiber.Map{
		"display_name": sf.DisplayName,
		"description":  sf.Description,
		"report_price": sf.ReportPrice,
		"currency":     sf.Currency,
		"plans":        sf.Plans,
	})
}
