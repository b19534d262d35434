package models

import "strings"

// Person represents a registered participant
type Person struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ExternalID  string `json:"external_id"`
}

// NormalizeName returns the canonical form of a person name: trimmed,
// lower-cased, with spaces replaced by underscores. Every lookup and
// write of a person name goes through this function.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// NormalizeNames normalizes each name and drops the ones that end up empty
func NormalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if n := NormalizeName(name); n != "" {
			out = append(out, n)
		}
	}
	return out
}
