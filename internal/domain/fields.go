package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNullElement = errors.New("domain: null collection element")

// Text is a string field that tolerates numbers and booleans in the stored
// document. Extended JSON dates and object ids unwrap to their string form;
// other objects, arrays and null decode to the empty string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	v, err := decodeAny(data)
	if err != nil {
		return nil
	}
	*t = Text(scalarString(v))
	return nil
}

func (t Text) String() string { return string(t) }

// Or returns def when t is blank.
func (t Text) Or(def string) string {
	if strings.TrimSpace(string(t)) == "" {
		return def
	}
	return string(t)
}

// OptInt is an optional integer. Integral floats and numeric strings are
// accepted; anything else leaves it invalid.
type OptInt struct {
	Value int
	Valid bool
}

func (o *OptInt) UnmarshalJSON(data []byte) error {
	*o = OptInt{}
	v, err := decodeAny(data)
	if err != nil {
		return nil
	}
	var f float64
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return nil
	}
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	*o = OptInt{Value: int(f), Valid: true}
	return nil
}

func (o OptInt) Or(def int) int {
	if !o.Valid {
		return def
	}
	return o.Value
}

// Flag is a boolean that also accepts "true"/"false" strings and numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	v, err := decodeAny(data)
	if err != nil {
		return nil
	}
	switch x := v.(type) {
	case bool:
		*f = Flag(x)
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(x))
		*f = Flag(b)
	case json.Number:
		n, _ := x.Float64()
		*f = n != 0
	}
	return nil
}

// List decodes a JSON array element by element, dropping elements that do
// not decode into T. A missing or non-array value yields an empty list.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// Link is a single platform → URL entry of the links map.
type Link struct {
	Platform string
	URL      string
}

// Links keeps the key order of the stored links object.
type Links []Link

func (l *Links) UnmarshalJSON(data []byte) error {
	*l = nil
	eachField(data, func(key string, raw json.RawMessage) {
		var url Text
		_ = json.Unmarshal(raw, &url)
		*l = append(*l, Link{Platform: key, URL: strings.TrimSpace(string(url))})
	})
	return nil
}

// Metric is one named criterion of an evaluation metric group.
type Metric struct {
	Name   string
	Points float64
}

// Metrics keeps the key order of the stored metrics object. Non-numeric and
// negative values are dropped.
type Metrics []Metric

func (m *Metrics) UnmarshalJSON(data []byte) error {
	*m = nil
	eachField(data, func(key string, raw json.RawMessage) {
		v, err := decodeAny(raw)
		if err != nil {
			return
		}
		n, ok := v.(json.Number)
		if !ok {
			return
		}
		f, err := n.Float64()
		if err != nil || f < 0 {
			return
		}
		*m = append(*m, Metric{Name: key, Points: f})
	})
	return nil
}

// Total is the sum of all points in the group.
func (m Metrics) Total() float64 {
	var total float64
	for _, metric := range m {
		total += metric.Points
	}
	return total
}

// eachField walks the members of a JSON object in document order. Non-object
// input is ignored.
func eachField(data []byte, fn func(key string, raw json.RawMessage)) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		key, ok := tok.(string)
		if !ok {
			return
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return
		}
		fn(key, raw)
	}
}

// objectOrString decodes data into obj, or hands a bare JSON string to
// fromString.
func objectOrString(data []byte, obj any, fromString func(string)) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errNullElement
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		fromString(s)
		return nil
	}
	return json.Unmarshal(data, obj)
}

func decodeAny(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		return extendedJSONScalar(x)
	default:
		return ""
	}
}

// extendedJSONScalar unwraps the relaxed Extended JSON forms of dates and
// object ids, e.g. {"$date":"2025-03-01T00:00:00Z"}.
func extendedJSONScalar(m map[string]any) string {
	if len(m) != 1 {
		return ""
	}
	for _, key := range []string{"$date", "$oid"} {
		if s, ok := m[key].(string); ok {
			return s
		}
	}
	return ""
}
