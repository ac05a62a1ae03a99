package portfolio

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an optional finite float parsed from loosely shaped JSON.
// Upstream payloads carry amounts as numbers, as strings with ru-RU
// formatting ("1 234,56"), or not at all; a Number is valid only when the
// field was present and parsed to a finite value. Parse failures never
// produce an error, they produce an absent Number.
type Number struct {
	value float64
	valid bool
}

// N returns a valid Number.
func N(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{value: v, valid: true}
}

// None returns an absent Number.
func None() Number { return Number{} }

// Float returns the value and whether it is present.
func (n Number) Float() (float64, bool) { return n.value, n.valid }

// Valid reports whether the value is present.
func (n Number) Valid() bool { return n.valid }

// Ptr returns the value as a pointer, nil when absent.
func (n Number) Ptr() *float64 {
	if !n.valid {
		return nil
	}
	v := n.value
	return &v
}

// Or returns n when present, otherwise the first present fallback.
func (n Number) Or(fallbacks ...Number) Number {
	if n.valid {
		return n
	}
	for _, f := range fallbacks {
		if f.valid {
			return f
		}
	}
	return Number{}
}

// UnmarshalJSON accepts JSON numbers, numeric strings (including ru-RU
// formatted ones) and null. Anything unparseable becomes an absent Number.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = N(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*n = ParseNumber(str)
	}
	return nil
}

// MarshalJSON encodes an absent Number as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// ParseNumber parses a human-formatted amount: regular and non-breaking
// spaces are stripped, a comma decimal separator is accepted, and any
// trailing currency symbols or units are ignored.
func ParseNumber(s string) Number {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ',':
			return '.'
		case r == '-' || r == '.' || (r >= '0' && r <= '9'):
			return r
		default:
			// spaces (incl. NBSP grouping), currency symbols, units
			return -1
		}
	}, s)
	if cleaned == "" {
		return Number{}
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Number{}
	}
	return N(f)
}

// Ident is a bond identifier decoded from either a JSON number or string.
type Ident struct {
	key string
}

// IdentOf builds an Ident from a raw key.
func IdentOf(key string) Ident { return Ident{key: strings.TrimSpace(key)} }

// Key returns the string form of the identifier, "" when absent.
func (id Ident) Key() string { return id.key }

// Empty reports whether the identifier is absent.
func (id Ident) Empty() bool { return id.key == "" }

// UnmarshalJSON accepts numbers and strings; null and malformed values
// leave the identifier empty.
func (id *Ident) UnmarshalJSON(data []byte) error {
	*id = Ident{}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		id.key = strings.TrimSpace(str)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		// Integer ids arrive as JSON numbers; keep the literal form.
		id.key = s
	}
	return nil
}

// MarshalJSON encodes an empty Ident as null.
func (id Ident) MarshalJSON() ([]byte, error) {
	if id.key == "" {
		return []byte("null"), nil
	}
	return json.Marshal(id.key)
}
