package utils

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/anjiri1684/vedic_numerology/models"
	"gorm.io/gorm"
)

const (
	orderNumberPrefix = "VN-"
	orderNumberLength = 8
	// no I, O, 0 or 1
	orderNumberCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxOrderAttempts   = 10
)

func randomOrderNumber() (string, error) {
	b := make([]byte, orderNumberLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = orderNumberCharset[int(b[i])%len(orderNumberCharset)]
	}
	return orderNumberPrefix + string(b), nil
}

// GenerateUniqueOrderNumber returns an order number not yet present in orders.
func GenerateUniqueOrderNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < maxOrderAttempts; i++ {
		code, err := randomOrderNumber()
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		var order models.Order
		err = tx.Select("id").Where("order_number = ?", code).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", err
		}
	}
	return "", errors.New("could not generate a unique order number")
}
