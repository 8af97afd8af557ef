package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var loadOnce sync.Once

func loadEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			zap.L().Info("no .env file found, reading from system environment variables")
		}
	})
}

func Config(key string) string {
	loadEnv()
	return os.Getenv(key)
}

func ConfigDefault(key, defaultValue string) string {
	if value := Config(key); value != "" {
		return value
	}
	return defaultValue
}

func ConfigInt(key string, defaultValue int) int {
	if value := Config(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func ConfigBool(key string, defaultValue bool) bool {
	if value := Config(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
