// Package email holds small helpers for working with email addresses shared
// by the mail queue and the payment webhook.
package email

import (
	"strings"
	"unicode"
)

// Normalize lower-cases and trims an address so store lookups by email are
// stable regardless of how the provider or the user cased it.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// DisplayName derives a "First Last" display name from the local part of an
// address, for use in mail greetings when no profile name is available.
func DisplayName(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		local = address[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Volunteer"
	}

	name := capitalize(parts[0])
	if len(parts) > 1 {
		name += " " + capitalize(parts[len(parts)-1])
	}
	return name
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
