package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// EntryKind tags which form an Entry was stored in.
type EntryKind int

const (
	EntryPlain EntryKind = iota + 1
	EntryStructured
)

// Entry is a collection element that may be stored either as a structured
// record or as a bare display string (mentors, judges, partners, prizes,
// contact details).
type Entry struct {
	Kind   EntryKind
	Text   string
	Fields map[string]any
}

// PlainEntry builds an Entry from display text.
func PlainEntry(text string) Entry {
	return Entry{Kind: EntryPlain, Text: text}
}

// StructuredEntry builds an Entry from record fields.
func StructuredEntry(fields map[string]any) Entry {
	return Entry{Kind: EntryStructured, Fields: fields}
}

var errUnsupportedEntry = errors.New("domain: entry must be an object or a string")

func (e *Entry) UnmarshalJSON(data []byte) error {
	v, err := decodeAny(data)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case map[string]any:
		*e = StructuredEntry(x)
	case string:
		*e = PlainEntry(x)
	case json.Number:
		*e = PlainEntry(x.String())
	default:
		return errUnsupportedEntry
	}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Kind == EntryStructured {
		return json.Marshal(e.Fields)
	}
	return json.Marshal(e.Text)
}

// Field returns the first non-blank scalar value among keys, so callers can
// list fallbacks such as Field("expertise", "role").
func (e Entry) Field(keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(scalarString(e.Fields[k])); s != "" {
			return s
		}
	}
	return ""
}

// FieldOr is Field with a default for when none of the keys is set.
func (e Entry) FieldOr(def string, keys ...string) string {
	if s := e.Field(keys...); s != "" {
		return s
	}
	return def
}
