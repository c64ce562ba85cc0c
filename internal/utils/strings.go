package utils

import "strings"

// NormalizeString trims surrounding whitespace. Inner line breaks are kept for waiver and message bodies.
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases and trims an address. Emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" || strings.ContainsAny(normalized, " \t\r\n") {
		return false
	}

	local, domain, ok := strings.Cut(normalized, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
