// =============================================================================
// Spreadconnect Order Importer - Key Transformer
// =============================================================================
//
// The order endpoint expects camelCase field names on the wire, while the
// domain records serialize with snake_case keys. This module recursively
// rewrites a decoded JSON structure (maps, slices, scalars) into the wire
// format: every map key is split on "_", the first segment is kept
// unchanged, and each subsequent segment gets its first letter
// capitalized. Keys without underscores are the degenerate single-segment
// case and pass through unchanged.
//
// =============================================================================

package camelize

import (
	"strings"
	"unicode"
)

// Transform recursively rewrites the keys of a nested structure of
// map[string]any / []any / scalars. Slices are mapped element-wise;
// scalars (numbers, booleans, nil, strings) pass through unchanged.
// Handles arbitrary nesting depth and empty collections.
func Transform(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[Key(key)] = Transform(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Transform(val)
		}
		return out
	default:
		return value
	}
}

// Key rewrites a single underscore-delimited key into camelCase:
// "order_number" -> "orderNumber", "sku" -> "sku".
func Key(key string) string {
	segments := strings.Split(key, "_")
	if len(segments) == 1 {
		return key
	}

	var b strings.Builder
	b.WriteString(segments[0])
	for _, segment := range segments[1:] {
		if segment == "" {
			continue
		}
		runes := []rune(segment)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}
