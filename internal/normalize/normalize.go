// =============================================================================
// Spreadconnect Order Importer - Field Normalizer
// =============================================================================
//
// This module turns raw string cells from the order export into typed,
// cleaned values. Every function is pure and total: normalization never
// fails, it degrades to a documented safe default instead. Unparsable
// quantities become 1 (a missing quantity must not silently zero out
// revenue), unparsable prices become 0.0, and malformed emails fall back
// to a placeholder address.
//
// =============================================================================

package normalize

import (
	"strconv"
	"strings"
)

// maxFieldLength caps every cleaned string field. The order endpoint
// rejects address fields longer than 255 characters.
const maxFieldLength = 255

// FallbackEmailEmpty is substituted when the email column is empty.
const FallbackEmailEmpty = "noemail@example.com"

// FallbackEmailInvalid is substituted when the email column is present but
// not a plausible address.
const FallbackEmailInvalid = "invalid@example.com"

// =============================================================================
// NUMERIC FIELDS
// =============================================================================

// ParseInteger parses a quantity cell. Parse failures (including empty
// cells) return 1, never 0. Negative values pass through unchanged, they
// carry refund semantics.
func ParseInteger(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return n
}

// ParseFloat parses a price cell. Parse failures return 0.0. Negative
// values pass through unchanged.
func ParseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0
	}
	return f
}

// =============================================================================
// STRING FIELDS
// =============================================================================

// CleanString removes literal double-quote characters, trims surrounding
// whitespace, and truncates the result to 255 characters.
func CleanString(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxFieldLength {
		return string(runes[:maxFieldLength])
	}
	return s
}

// ValidateEmail trims the email cell and substitutes a fallback when it is
// empty or not a plausible address. Anything containing both "@" and "."
// is kept as-is.
func ValidateEmail(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return FallbackEmailEmpty
	case strings.Contains(s, "@") && strings.Contains(s, "."):
		return s
	default:
		return FallbackEmailInvalid
	}
}

// ExtractFirstName returns the first whitespace-separated token of the
// cleaned full-name cell, or "" when the cell is empty.
func ExtractFirstName(s string) string {
	tokens := strings.Fields(CleanString(s))
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// ExtractLastName returns the last whitespace-separated token of the
// cleaned full-name cell, or "" when the cell is empty.
func ExtractLastName(s string) string {
	tokens := strings.Fields(CleanString(s))
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// =============================================================================
// LOCATION FIELDS
// =============================================================================

// NormalizeCountryCode takes the first 2 characters of the raw value.
// This is a direct truncation, not a locale-aware ISO lookup: the export
// writes country columns as "DE - Germany".
func NormalizeCountryCode(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		return s
	}
	return string(runes[:2])
}

// NormalizeStateCode takes the last 2 characters of the raw value. The
// export writes state columns as "Berlin - BE".
func NormalizeStateCode(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		return s
	}
	return string(runes[len(runes)-2:])
}

// CleanCityName trims the cell and truncates it at the first character
// that is not an ASCII letter, so "Berlin - Mitte" becomes "Berlin".
func CleanCityName(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if !isASCIILetter(r) {
			return s[:i]
		}
	}
	return s
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// =============================================================================
// PHONE NUMBERS
// =============================================================================

// ParsePhoneNumber cleans the cell and converts a German national prefix
// to international form: a single leading "0" becomes "+49". Numbers that
// already carry a "+" prefix are left alone, so no double prefixing.
// Other country codes are not supported.
func ParsePhoneNumber(s string) string {
	s = CleanString(s)
	if strings.HasPrefix(s, "0") {
		return "+49" + s[1:]
	}
	return s
}
