// Package ident canonicalizes task and user identifiers.
//
// The backend serializes identifiers either as canonical hex-hyphenated strings
// or as raw arrays of 16 byte-valued integers, depending on the code path that
// produced them. This package makes both representations interchangeable
// everywhere an identifier is compared, displayed, or embedded in a URL path.
package ident

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ID is an identifier in the canonical lowercase 8-4-4-4-12 hex form.
//
// Values that cannot be canonicalized are carried through unchanged. That is a
// deliberate leniency, not a guarantee: callers that need a usable identifier
// must check usability at the boundary (see NormalizeJSON).
type ID string

// UnmarshalJSON decodes an identifier from either representation, applying
// Normalize at the decode boundary. Unrecognized shapes keep their raw JSON
// text, which re-serializes as a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	normalized, _ := NormalizeJSON(data)
	*id = normalized
	return nil
}

// String returns the identifier's textual form.
func (id ID) String() string {
	return string(id)
}

// Normalize canonicalizes an identifier value.
//
// Strings are returned unchanged. A slice of exactly 16 integers in [0, 255]
// is interpreted as the identifier's raw bytes in big-endian positional order
// and encoded to the canonical hyphenated form. Any other value is returned
// unchanged; no error is raised.
func Normalize(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case []int:
		if canonical, ok := fromInts(v); ok {
			return string(canonical)
		}
	case []any:
		// JSON arrays decode as []any with float64 elements.
		ints := make([]int, 0, len(v))
		for _, e := range v {
			f, ok := e.(float64)
			if !ok || f != float64(int(f)) {
				return value
			}
			ints = append(ints, int(f))
		}
		if canonical, ok := fromInts(ints); ok {
			return string(canonical)
		}
	}
	return value
}

// NormalizeJSON canonicalizes a raw JSON identifier value. The boolean reports
// whether the value is usable as an identifier: it was a JSON string, or a
// 16-element integer array that canonicalized. Numbers, objects, null, and
// other shapes are carried through as raw text and reported unusable.
func NormalizeJSON(raw json.RawMessage) (ID, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ID(s), true
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err == nil {
		if canonical, ok := fromInts(ints); ok {
			return canonical, true
		}
	}
	return ID(string(raw)), false
}

// Equal reports whether two identifiers refer to the same entity, comparing
// their normalized canonical forms. Values that parse as identifiers compare
// by value regardless of case or formatting; anything else compares as text.
func Equal(a, b ID) bool {
	ua, errA := uuid.Parse(string(a))
	ub, errB := uuid.Parse(string(b))
	if errA == nil && errB == nil {
		return ua == ub
	}
	return a == b
}

func fromInts(ints []int) (ID, bool) {
	if len(ints) != 16 {
		return "", false
	}
	var buf [16]byte
	for i, n := range ints {
		if n < 0 || n > 255 {
			return "", false
		}
		buf[i] = byte(n)
	}
	u, err := uuid.FromBytes(buf[:])
	if err != nil {
		return "", false
	}
	return ID(u.String()), true
}
