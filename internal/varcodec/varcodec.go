// Package varcodec maps decoded Terraform output values to the wire
// encoding the workspace-variables API expects, and back.
//
// A scalar value is sent as its plain text so the remote side stores it
// as a literal; an array or object is sent as JSON text with the hcl
// flag set, so the remote side parses it as a typed collection rather
// than an opaque string. JSON text is valid HCL expression syntax for
// the shapes produced here, which is what makes the hcl flag safe.
package varcodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// A Value is a decoded JSON document value: nil, bool, json.Number,
// string, []any, or map[string]any. Numbers are kept as json.Number so
// their text survives a round trip without re-rounding. Values are
// produced by ParseValue or Decode and never mutated afterwards.
type Value any

// ErrMalformedValue reports a raw wire value that was expected to be
// JSON but failed to parse.
var ErrMalformedValue = errors.New("malformed variable value")

// Kind enumerates the closed set of value shapes.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Primitive reports whether the kind is a scalar: bool, number, or
// string. Null counts as structured so that it round-trips through the
// JSON side of the encoding.
func (k Kind) Primitive() bool {
	return k == KindBool || k == KindNumber || k == KindString
}

// HCL reports whether a value of this kind must be flagged as HCL on
// the wire.
func (k Kind) HCL() bool {
	return !k.Primitive()
}

// Classify returns the Kind of v. Values built outside ParseValue or
// Decode (for example raw float64 from a plain json.Unmarshal) are
// rejected rather than guessed at.
func Classify(v Value) (Kind, error) {
	switch v.(type) {
	case nil:
		return KindNull, nil
	case bool:
		return KindBool, nil
	case json.Number:
		return KindNumber, nil
	case string:
		return KindString, nil
	case []any:
		return KindArray, nil
	case map[string]any:
		return KindObject, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

// ParseValue decodes a single JSON value, preserving number text.
// Trailing content after the value is an error.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedValue, err)
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after value", ErrMalformedValue)
	}
	return v, nil
}

// Encode returns the wire text for v: the literal string content for a
// string (no re-quoting), canonical JSON text for everything else.
func Encode(v Value) (string, error) {
	if _, err := Classify(v); err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode is the inverse of Encode. isString tells it whether the
// original value was a string and raw is therefore literal text; in
// every other case raw must be valid JSON.
func Decode(hcl, isString bool, raw string) (Value, error) {
	if isString {
		return raw, nil
	}
	// Scalars and collections alike come back as JSON text.
	return ParseValue([]byte(raw))
}
