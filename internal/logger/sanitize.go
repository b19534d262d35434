package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxExternalIDLength is the maximum length for chat platform ids in logs
	MaxExternalIDLength = 128
	// MaxNameLength is the maximum length for person names in logs
	MaxNameLength = 128
	// MaxContentLength is the maximum length for task and reminder text in logs
	MaxContentLength = 300
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
)

// SanitizeString strips control characters and invalid UTF-8 from s and
// truncates it to maxLength bytes. A non-positive maxLength means
// MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = truncate(s, maxLength) + "..."
	}
	return s
}

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeExternalID sanitizes a caller id taken from a request header
func SanitizeExternalID(id string) string {
	return SanitizeString(id, MaxExternalIDLength)
}

// SanitizeName sanitizes a person name
func SanitizeName(name string) string {
	return SanitizeString(name, MaxNameLength)
}

// SanitizeContent sanitizes user-written task or reminder text
func SanitizeContent(content string) string {
	return SanitizeString(content, MaxContentLength)
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// filterRunes keeps printable runes plus space, tab, newline and carriage return.
func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
