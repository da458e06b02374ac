package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue is the canonical placeholder for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

// Credential material must never reach the logs: the proxy sees passwords,
// consumer secrets and token secrets on every request. Matching is by
// lowercase substring so both the header spellings and the snake_case field
// names are caught.
var sensitiveMarkers = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"cookie",
}

// IsSensitive reports whether a log key or header name refers to credential
// material.
func IsSensitive(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, marker := range sensitiveMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

// SensitiveMarkers returns a sorted copy of the substrings that trigger
// redaction. Tests use this to ensure credential keys stay masked.
func SensitiveMarkers() []string {
	markers := make([]string, len(sensitiveMarkers))
	copy(markers, sensitiveMarkers)
	sort.Strings(markers)
	return markers
}

// MaskValue returns the redaction placeholder for non-empty values; empty
// values pass through to avoid noise.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField returns a slog.Attr whose value is redacted when the key refers
// to credential material. The original key casing is preserved.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || !IsSensitive(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}
