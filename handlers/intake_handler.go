package handlers

import (
	"errors"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type IntakeAnswer struct {
	Value string `json:"value"`
}

func intakeView(s *services.IntakeSession) fiber.Map {
	return fiber.Map{
		"session_id":   s.ID,
		"current_step": s.CurrentStep,
		"total_steps":  s.TotalSteps,
		"step":         s.Current(),
		"form":         s.Form,
		"is_final":     s.IsFinalStep(),
	}
}

func loadIntake(c *fiber.Ctx) (*services.IntakeSession, error) {
	s, err := services.LoadIntakeSession(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		if errors.Is(err, services.ErrIntakeSessionNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Intake session not found or expired"})
		}
		zap.L().Error("🔥 Failed to load intake session", zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load intake session"})
	}
	return s, nil
}

func StartIntake(c *fiber.Ctx) error {
	s := services.NewIntakeSession(config.GetStorefront().CollectGender, middleware.UserID(c))
	if err := services.SaveIntakeSession(c.UserContext(), s); err != nil {
		zap.L().Error("🔥 Failed to start intake session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start intake"})
	}
	return c.Status(fiber.StatusCreated).JSON(intakeView(s))
}

func GetIntake(c *fiber.Ctx) error {
	s, err := loadIntake(c)
	if s == nil {
		return err
	}
	return c.JSON(intakeView(s))
}

// IntakeNext stores the answer for the current step and advances. On the
// last step it creates the pending report and returns checkout options.
func IntakeNext(c *fiber.Ctx) error {
	s, err := loadIntake(c)
	if s == nil {
		return err
	}

	var req IntakeAnswer
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	s.SetValue(req.Value)

	submit, err := s.Next()
	if saveErr := services.SaveIntakeSession(c.UserContext(), s); saveErr != nil {
		zap.L().Error("🔥 Failed to save intake session", zap.Error(saveErr))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save answer"})
	}
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return validationFailed(c, verr)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !submit {
		return c.JSON(intakeView(s))
	}

	userID := s.UserID
	if id := middleware.UserID(c); id != nil {
		userID = id
	}
	report, err := services.CreatePendingReport(c.UserContext(), database.DB, s.Form, userID)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return validationFailed(c, verr)
		}
		zap.L().Error("🔥 Failed to create report from intake", zap.String("session", s.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create report. Please try again."})
	}

	if err := services.DeleteIntakeSession(c.UserContext(), s.ID); err != nil {
		zap.L().Warn("failed to delete finished intake session", zap.String("session", s.ID), zap.Error(err))
	}
	return reportCreatedResponse(c, report)
}

func IntakePrevious(c *fiber.Ctx) error {
	s, err := loadIntake(c)
	if s == nil {
		return err
	}

	if s.Previous() {
		if err := services.DeleteIntakeSession(c.UserContext(), s.ID); err != nil {
			zap.L().Warn("failed to delete exited intake session", zap.String("session", s.ID), zap.Error(err))
		}
		return c.JSON(fiber.Map{"exited": true})
	}

	if err := services.SaveIntakeSession(c.UserContext(), s); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save intake session"})
	}
	return c.JSON(intakeView(s))
}
