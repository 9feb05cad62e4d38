package logger

import (
	"regexp"
	"strings"
)

// SensitiveDataPatterns contains regex patterns for values that must never reach log output
var SensitiveDataPatterns = []*regexp.Regexp{
	// Bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),

	// key=value style secrets, including ?key= query parameters on Gemini URLs
	regexp.MustCompile(`(?i)((api|access|auth|token|secret|key|passw(or)?d)[0-9a-z\-_\.]*[\s:=]+)([^;,&\s]{5,})`),

	// Google API keys appearing bare in error text
	regexp.MustCompile(`()(AIza[0-9A-Za-z_\-]{20,})`),
}

// SensitiveKeywords mark field keys whose values are always redacted
var SensitiveKeywords = []string{
	"password", "secret", "token", "apikey", "api_key", "authorization", "credential",
}

// RedactSensitiveData replaces sensitive information with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}[REDACTED]")
	}

	return input
}

// RedactSensitiveValue redacts value entirely when key names a secret and
// otherwise scrubs secret-looking substrings.
func RedactSensitiveValue(key, value string) string {
	if value == "" {
		return value
	}

	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range SensitiveKeywords {
		if strings.Contains(keyLower, sensitiveKey) {
			return "[REDACTED]"
		}
	}

	return RedactSensitiveData(value)
}
