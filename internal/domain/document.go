package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a raw hackathon document as imported and persisted. The store
// keeps it verbatim; Hackathon is the typed view read back from it.
type Document map[string]any

const (
	FieldID    = "_id"
	FieldAltID = "id"
	FieldSlug  = "slug"
	FieldName  = "name"
)

// ID returns the primary key, preferring "_id" over "id".
func (d Document) ID() string {
	if id := d.str(FieldID); id != "" {
		return id
	}
	return d.str(FieldAltID)
}

func (d Document) Slug() string { return d.str(FieldSlug) }

func (d Document) Name() string { return d.str(FieldName) }

func (d Document) str(key string) string {
	return strings.TrimSpace(scalarString(d[key]))
}

// Hackathon decodes the typed view of the document.
func (d Document) Hackathon() (Hackathon, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return Hackathon{}, fmt.Errorf("domain: encode document: %w", err)
	}
	return DecodeHackathon(raw)
}

// Merge returns a copy of d with the top-level fields of partial applied.
func (d Document) Merge(partial Document) Document {
	out := make(Document, len(d)+len(partial))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}
