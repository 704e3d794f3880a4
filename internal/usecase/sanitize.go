package usecase

import (
	"strings"

	"hackathon-assistant/internal/domain"
)

// SanitizeDocument returns a deep copy of doc with control characters other
// than tab, newline and carriage return removed from every string value.
func SanitizeDocument(doc domain.Document) domain.Document {
	if doc == nil {
		return nil
	}
	out := make(domain.Document, len(doc))
	for k, v := range doc {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case string:
		return StripControlChars(x)
	case map[string]any:
		return map[string]any(SanitizeDocument(domain.Document(x)))
	case domain.Document:
		return SanitizeDocument(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

// StripControlChars drops U+0000-U+001F and U+007F except \t, \n and \r.
func StripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
