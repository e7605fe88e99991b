// Package secrets resolves credentials from the environment or from files
// mounted next to it (the Docker/Kubernetes <KEY>_FILE convention).
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// GetSecret returns the value of envKey. If <envKey>_FILE is set, the file
// contents win over the plain variable. An unset secret yields defaultValue.
func GetSecret(envKey string, defaultValue string) (string, error) {
	if filePath := os.Getenv(envKey + "_FILE"); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}
	return defaultValue, nil
}

// GetOptionalSecret is GetSecret that falls back to defaultValue on any error
func GetOptionalSecret(envKey string, defaultValue string) string {
	value, err := GetSecret(envKey, defaultValue)
	if err != nil {
		return defaultValue
	}
	return value
}

// Redact keeps the first and last two characters of a secret for logging
func Redact(secret string) string {
	if len(secret) <= 6 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
