package logger

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{"empty", "", 10, ""},
		{"plain", "water plants", 0, "water plants"},
		{"control characters removed", "buy\x00 milk\x1b[31m", 0, "buy milk[31m"},
		{"newlines kept", "line one\nline two", 0, "line one\nline two"},
		{"invalid utf8 dropped", "caf\xe9 au lait", 0, "caf au lait"},
		{"truncated", "abcdefghij", 4, "abcd..."},
		{"multibyte not split", "ééé", 3, "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeString(tt.input, tt.maxLength)
			if got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeString(%q) produced invalid UTF-8", tt.input)
			}
		})
	}
}

func TestSanitizeHelpers(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 5000)

	if got := SanitizeContent(long); len(got) != MaxContentLength+3 {
		t.Errorf("SanitizeContent length = %d, want %d", len(got), MaxContentLength+3)
	}
	if got := SanitizeExternalID(long); len(got) != MaxExternalIDLength+3 {
		t.Errorf("SanitizeExternalID length = %d, want %d", len(got), MaxExternalIDLength+3)
	}
	if got := SanitizeName("alice\r\n"); got != "alice\r\n" {
		t.Errorf("SanitizeName dropped line breaks: %q", got)
	}
	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q", got)
	}
	if got := SanitizeError(errors.New("bad\x07 thing")); got != "bad thing" {
		t.Errorf("SanitizeError = %q", got)
	}
	if got := SanitizePath("/api/v1/people/alice"); got != "/api/v1/people/alice" {
		t.Errorf("SanitizePath = %q", got)
	}
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{false, true} {
		l, err := NewProductionLogger("worker", debug)
		if err != nil {
			t.Fatalf("NewProductionLogger(%v) error = %v", debug, err)
		}
		if got := l.Core().Enabled(level(true)); got != debug {
			t.Errorf("debug enabled = %v, want %v", got, debug)
		}
	}
	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}
