package expr

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type held by a Value.
type Kind int

// Value kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Value is a request variable: a string, or a number when the raw text
// parsed as one.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// IntValue returns an integer value.
func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// FloatValue returns a floating point value.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Coerce parses raw as a base-10 integer, then as a finite float. A float
// with an integral value that fits int64, such as "3.0" or "1e3", becomes an
// integer. Anything else, including the empty string, stays a string.
func Coerce(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return StringValue(raw)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		if f == math.Trunc(f) && f >= math.MinInt64 && f < 1<<63 {
			return IntValue(int64(f))
		}
		return FloatValue(f)
	}
	return StringValue(raw)
}

// Kind returns the kind of v.
func (v Value) Kind() Kind {
	return v.kind
}

// Native returns v as a string, int64 or float64.
func (v Value) Native() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// String formats v.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// Context maps variable names to values for one evaluation.
type Context map[string]Value

// Set stores a coerced raw value under name.
func (c Context) Set(name, raw string) {
	c[name] = Coerce(raw)
}

// SetString stores raw under name without coercion.
func (c Context) SetString(name, raw string) {
	c[name] = StringValue(raw)
}

func (c Context) activation() map[string]any {
	vars := make(map[string]any, len(c))
	for k, v := range c {
		vars[k] = v.Native()
	}
	return vars
}
