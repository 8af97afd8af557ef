package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

const (
	UserTokenTTL  = 72 * time.Hour
	AdminTokenTTL = 12 * time.Hour
)

type Registration struct {
	FullName string
	Email    string
	Password string
	Phone    *string
}

// RegisterUser creates the account and its profile in one transaction.
func RegisterUser(ctx context.Context, db *gorm.DB, reg Registration) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	user := models.User{
		FullName: strings.TrimSpace(reg.FullName),
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleUser,
		IsActive: true,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}
		profile, err := upsertProfile(tx, user.ID, user.FullName, reg.Phone)
		if err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func AuthenticateUser(ctx context.Context, db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return &user, nil
}

// VerifyAdminLogin returns the matching admin, or nil when no admin has these
// credentials.
func VerifyAdminLogin(ctx context.Context, db *gorm.DB, email, password string) (*models.User, error) {
	var admin models.User
	err := db.WithContext(ctx).
		Where("email = ? AND role = ?", strings.ToLower(strings.TrimSpace(email)), models.RoleAdmin).
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil || !admin.IsActive {
		return nil, nil
	}
	return &admin, nil
}

type IssuedToken struct {
	Token     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func IssueToken(user *models.User, secret string, ttl time.Duration) (*IssuedToken, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not configured")
	}
	jti := uuid.NewString()
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"jti":     jti,
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
		"exp":     exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ID: jti, ExpiresAt: exp}, nil
}

func GetUserWithProfile(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).Preload("Profile").Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertProfile writes the owner's profile, keyed on user id.
func UpsertProfile(ctx context.Context, db *gorm.DB, userID uuid.UUID, fullName string, phone *string) (*models.Profile, error) {
	return upsertProfile(db.WithContext(ctx), userID, fullName, phone)
}

func upsertProfile(db *gorm.DB, userID uuid.UUID, fullName string, phone *string) (*models.Profile, error) {
	profile := models.Profile{
		UserID:   userID,
		FullName: strings.TrimSpace(fullName),
		Phone:    phone,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "phone", "updated_at"}),
	}).Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	var stored models.Profile
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
