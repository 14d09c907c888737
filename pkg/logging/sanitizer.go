package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

const (
	// MaxArgumentLogLength is the maximum length of a tool argument value to log
	MaxArgumentLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Bearer credentials of any shape: personal access tokens are opaque, not JWTs.
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_.~+/]+=*`)

	// X-Admin-Secret: xxx or admin_shared_secret=xxx
	secretPattern = regexp.MustCompile(`(?i)(x-admin-secret|admin_shared_secret|secret|pat|token)(["']?\s*[:=]\s*["']?)[^\s"',;&]+`)

	// Pattern to match potential passwords (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)
)

// SanitizeText removes credentials from free text before it is logged.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	sanitized = secretPattern.ReplaceAllString(sanitized, "${1}${2}"+RedactedText)
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeText(err.Error())
}

// SanitizeArgument truncates and sanitizes a tool argument value for logging
func SanitizeArgument(value string) string {
	if value == "" {
		return ""
	}
	return TruncateString(SanitizeText(value), MaxArgumentLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// MaskToken returns a stable, non-reversible identifier for a token: the first
// 12 hex characters of its SHA-256 followed by "...".
func MaskToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:12] + "..."
}
