package handlers

import (
	"strings"

	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	FullName string  `json:"full_name" validate:"required,notblank"`
	Phone    *string `json:"phone" validate:"omitempty,min=10"`
}

func GetProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	user, err := services.GetUserWithProfile(c.UserContext(), database.DB, *userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(toUserResponse(user))
}

func UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		if trimmed == "" {
			req.Phone = nil
		} else {
			req.Phone = &trimmed
		}
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	profile, err := services.UpsertProfile(c.UserContext(), database.DB, *userID, req.FullName, req.Phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "profile": profile})
}
