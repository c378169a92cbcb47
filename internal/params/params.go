// Package params provides the late-bound typed configuration store backing
// every parameterizable engine object. Strategies, indicators, analyzers,
// and the optimizer all read declared defaults through it, and the
// optimizer overrides values by name when sweeping a parameter grid.
package params

import (
	"fmt"
	"sort"
)

// Kind identifies the type stored in a Value.
type Kind int

// Supported value kinds.
const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// Value is a tagged parameter value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// None returns the null value.
func None() Value { return Value{kind: KindNone} }

// Bool wraps a bool.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int wraps an integer.
func Int(v int) Value { return Value{kind: KindInt, i: int64(v)} }

// Int64 wraps a 64-bit integer.
func Int64(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a float64.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind returns the value's kind tag.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Int returns the integer payload. Float values are truncated; other kinds
// yield zero.
func (v Value) Int() int {
	switch v.kind {
	case KindInt:
		return int(v.i)
	case KindFloat:
		return int(v.f)
	}
	return 0
}

// Float returns the float payload. Integer values are widened; other kinds
// yield zero.
func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	}
	return 0
}

// String returns the string payload, or a formatted rendering for numeric
// and boolean kinds.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	}
	return ""
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool { return v == o }

// Params is a name-to-value map with merge and override semantics.
type Params struct {
	m map[string]Value
}

// New creates an empty parameter set.
func New() *Params {
	return &Params{m: make(map[string]Value)}
}

// Set stores a value under name, replacing any existing entry.
func (p *Params) Set(name string, v Value) { p.m[name] = v }

// Has reports whether name is present.
func (p *Params) Has(name string) bool {
	_, ok := p.m[name]
	return ok
}

// Get returns the value stored under name. A missing key is a programming
// error at the call site and fails loudly.
func (p *Params) Get(name string) (Value, error) {
	v, ok := p.m[name]
	if !ok {
		return Value{}, fmt.Errorf("params: parameter not found: %s", name)
	}
	return v, nil
}

// MustGet is Get for keys that are known to exist (declared defaults).
// It panics on a missing key.
func (p *Params) MustGet(name string) Value {
	v, err := p.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Bool returns the boolean under name, or def when absent.
func (p *Params) Bool(name string, def bool) bool {
	if v, ok := p.m[name]; ok {
		return v.Bool()
	}
	return def
}

// Int returns the integer under name, or def when absent.
func (p *Params) Int(name string, def int) int {
	if v, ok := p.m[name]; ok {
		return v.Int()
	}
	return def
}

// Float returns the float under name, or def when absent.
func (p *Params) Float(name string, def float64) float64 {
	if v, ok := p.m[name]; ok {
		return v.Float()
	}
	return def
}

// Str returns the string under name, or def when absent.
func (p *Params) Str(name string, def string) string {
	if v, ok := p.m[name]; ok {
		return v.String()
	}
	return def
}

// Merge copies entries from other only where the key is absent. Used for
// inheriting declared defaults.
func (p *Params) Merge(other *Params) {
	for k, v := range other.m {
		if _, ok := p.m[k]; !ok {
			p.m[k] = v
		}
	}
}

// Override copies every entry from other, replacing existing keys. Used by
// the optimizer to apply a grid assignment.
func (p *Params) Override(other *Params) {
	for k, v := range other.m {
		p.m[k] = v
	}
}

// Keys returns all parameter names, sorted.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := New()
	for k, v := range p.m {
		c.m[k] = v
	}
	return c
}
