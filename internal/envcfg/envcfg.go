// Package envcfg provides helpers for building explicit configuration
// structures from environment variables, validated once at startup.
package envcfg

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// GetString retrieves a trimmed string from an environment variable or
// returns the default.
func GetString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetDuration retrieves a duration from an environment variable or returns the default.
// Accepts duration strings like "100ms", "2s", "1m", etc.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Require retrieves a trimmed string from an environment variable and
// returns an error naming the variable if it is empty.
func Require(key string) (string, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}
