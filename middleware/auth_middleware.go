package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/vedic_numerology/cache"
	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrTokenRevoked = errors.New("token has been revoked")

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(config.Config("JWT_SECRET")),
		ErrorHandler:   jwtError,
		SuccessHandler: rejectRevoked,
	})
}

// OptionalAuth lets anonymous requests through but still rejects a bad token.
func OptionalAuth() fiber.Handler {
	protected := Protected()
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		return protected(c)
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func rejectRevoked(c *fiber.Ctx) error {
	claims, ok := Claims(c)
	if !ok {
		return jwtError(c, errors.New("invalid claims"))
	}
	if revoked, err := isRevoked(c, claims); err != nil {
		zap.L().Warn("token revocation check failed", zap.Error(err))
	} else if revoked {
		return jwtError(c, ErrTokenRevoked)
	}
	return c.Next()
}

func isRevoked(c *fiber.Ctx, claims jwt.MapClaims) (bool, error) {
	jti, _ := claims["jti"].(string)
	if jti == "" || cache.Default == nil {
		return false, nil
	}
	return cache.Default.IsTokenRevoked(c.UserContext(), jti)
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		role, _ := claims["role"].(string)

		if role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

// Claims returns the verified token claims, if the request carried a token.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// UserID is nil for anonymous requests.
func UserID(c *fiber.Ctx) *uuid.UUID {
	claims, ok := Claims(c)
	if !ok {
		return nil
	}
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// ParseToken verifies a raw token outside the HTTP middleware, e.g. the
// first message on a websocket.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if jti, _ := claims["jti"].(string); jti != "" && cache.Default != nil {
		revoked, err := cache.Default.IsTokenRevoked(context.Background(), jti)
		if err == nil && revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}
