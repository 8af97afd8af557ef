package handlers

import (
	"errors"
	"time"

	"github.com/anjiri1684/vedic_numerology/cache"
	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/notifications"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/anjiri1684/vedic_numerology/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = utils.Validate

type SignUpRequest struct {
	FullName        string  `json:"full_name" validate:"required,notblank"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=6"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
	Phone           *string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	FullName  string          `json:"full_name"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Profile   *models.Profile `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}

func signUpError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch {
	case fe.Tag() == "required" || fe.Tag() == "notblank":
		return "Please fill in all fields"
	case fe.Tag() == "eqfield":
		return "Passwords do not match"
	case fe.Field() == "password" && fe.Tag() == "min":
		return "Password must be at least 6 characters"
	case fe.Field() == "email":
		return "Please enter a valid email address"
	}
	return fe.Error()
}

func SignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": signUpError(err)})
	}

	user, err := services.RegisterUser(c.UserContext(), database.DB, services.Registration{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		zap.L().Error("🔥 Failed to create user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	token, err := services.IssueToken(user, config.Config("JWT_SECRET"), services.UserTokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	go notifications.SendEmail(user.FullName, user.Email, "Welcome!", "<h1>Welcome!</h1><p>Thank you for registering. Your numerology reports will appear in your dashboard.</p>")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Account created successfully!",
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
		"user":       toUserResponse(user),
	})
}

func SignIn(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please fill in all fields"})
	}

	user, err := services.AuthenticateUser(c.UserContext(), database.DB, req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	case errors.Is(err, services.ErrAccountDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is disabled"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	token, err := services.IssueToken(user, config.Config("JWT_SECRET"), services.UserTokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	return c.JSON(fiber.Map{
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
		"user":       toUserResponse(user),
	})
}

// SignOut revokes the presented token until it would have expired anyway.
// Used for both user and admin sessions.
func SignOut(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)

	if jti != "" && cache.Default != nil {
		if err := cache.Default.RevokeToken(c.UserContext(), jti, time.Unix(int64(exp), 0)); err != nil {
			zap.L().Error("🔥 Failed to revoke token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign out"})
		}
	}
	return c.JSON(fiber.Map{"message": "Signed out successfully"})
}

func GetSession(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	user, err := services.GetUserWithProfile(c.UserContext(), database.DB, *userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	claims, _ := middleware.Claims(c)
	exp, _ := claims["exp"].(float64)
	return c.JSON(fiber.Map{
		"user":       toUserResponse(user),
		"expires_at": time.Unix(int64(exp), 0),
	})
}

func AdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please enter both email and password"})
	}

	admin, err := services.VerifyAdminLogin(c.UserContext(), database.DB, req.Email, req.Password)
	if err != nil {
		zap.L().Error("🔥 Admin login lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}
	if admin == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := services.IssueToken(admin, config.Config("JWT_SECRET"), services.AdminTokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	zap.L().Info("admin signed in", zap.String("email", admin.Email))
	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
		"admin": fiber.Map{
			"id":        admin.ID,
			"email":     admin.Email,
			"full_name": admin.FullName,
		},
	})
}
