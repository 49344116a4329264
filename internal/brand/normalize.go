package brand

import "strings"

// UnknownKey is the sentinel returned for null or empty brand input.
const UnknownKey = "unknown"

// Normalize canonicalizes a raw brand string into a lookup key. It must be
// used identically everywhere brand identity is compared: population,
// scoring, and retrieval at filter time. The normalization merges
// variations like "Amazon Brand - Solimo" and "solimo" into one key.
func Normalize(raw string) string {
	b := strings.ToLower(strings.TrimSpace(raw))
	if b == "" {
		return UnknownKey
	}

	b = strings.ReplaceAll(b, "amazon brand - ", "")
	// Normalize the one-word spelling variant
	b = strings.ReplaceAll(b, "amazonbasics", "amazon basics")

	b = strings.TrimSpace(b)
	if b == "" {
		return UnknownKey
	}
	return b
}
