package log

import (
	"strings"
)

// sensitiveKeywords marks field names whose values must never be logged
// verbatim. Bearer tokens and service API keys flow through this layer on
// every authenticated request.
var sensitiveKeywords = []string{
	"password", "passwd", "pwd",
	"api_key", "apikey", "api-key",
	"token", "access_token", "bearer",
	"secret", "auth", "authorization",
	"credential", "private_key",
}

// SanitizeField checks if the key names a sensitive field and masks the
// value accordingly. Non-sensitive values pass through unchanged.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)

	if strings.Contains(lowerKey, "email") || strings.Contains(lowerKey, "mail") {
		return sanitizeEmail(value)
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return sanitizeToken(value)
		}
	}

	return value
}

// sanitizeToken masks a credential, keeping only the first and last four
// characters of long values.
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizeEmail masks the local part of an address, keeping the domain.
func sanitizeEmail(value string) string {
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		return strings.Repeat("*", len(value))
	}

	local := parts[0]
	if len(local) > 3 {
		local = local[:3] + strings.Repeat("*", len(local)-3)
	} else {
		local = strings.Repeat("*", len(local))
	}

	return local + "@" + parts[1]
}
