// Package redact scrubs credentials and infrastructure details from error
// messages before they are logged or returned to API clients. Remote gateway
// and storage errors routinely embed request URLs, DSNs and bearer tokens.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules run in order; earlier rules see the unmodified text.
var rules = []rule{
	// user:password@ in connection strings and URLs
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|pgx|sqlite3?|https?|file)://[^@\s/]+@`), RedactedCredentialPlaceholder},
	// Google API keys, as used by Gemini
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{30,}`), RedactedKeyPlaceholder},
	// Signed tokens
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedJWTPlaceholder},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/=]{8,}`), "Bearer " + RedactedKeyPlaceholder},
	// key=value style secrets, including URL query parameters
	{regexp.MustCompile(`(?i)\b(password|passwd|pwd)([=:\s]+['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)\b(api[_-]?key|key|token|secret|signing[_-]?secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},
	// Absolute file system paths, e.g. sqlite database files
	{regexp.MustCompile(`(^|[\s"'=(])(?:/[\w.-]+){2,}`), "${1}" + RedactedPathPlaceholder},
	// Email addresses
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},
	// SQL statements echoed by drivers
	{regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\w,*()"'$?=.]+\b(FROM|INTO|SET)\b[\s\w,*()"'$?=.]*`), "[REDACTED_SQL]"},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// ErrAttr returns a slog attribute carrying the redacted error message.
func ErrAttr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
