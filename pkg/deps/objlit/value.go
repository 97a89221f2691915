package objlit

import (
	"encoding/json"
	"strings"
)

// Expr is the raw source text of a non-literal value. It is never evaluated.
type Expr string

// Object is an ordered object literal. Duplicate keys keep their first
// position and their last value.
type Object struct {
	keys []string
	vals map[string]any
}

func newObject() *Object {
	return &Object{vals: make(map[string]any)}
}

func (o *Object) set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Keys returns the keys in source order.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of distinct keys.
func (o *Object) Len() int { return len(o.keys) }

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Object returns the nested object stored under key, if any.
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.vals[key].(*Object)
	return v, ok
}

// Text returns the scalar stored under key as a string. Strings and
// numbers qualify; everything else reports false.
func (o *Object) Text(key string) (string, bool) {
	v, ok := o.vals[key]
	if !ok {
		return "", false
	}
	return Scalar(v)
}

// Scalar converts a string or number value to its string form.
func Scalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	default:
		return "", false
	}
}

// Walk visits o and every object nested inside it, depth-first in source
// order. Returning false from fn stops the walk.
func (o *Object) Walk(fn func(*Object) bool) bool {
	if !fn(o) {
		return false
	}
	for _, k := range o.keys {
		if !walkValue(o.vals[k], fn) {
			return false
		}
	}
	return true
}

func walkValue(v any, fn func(*Object) bool) bool {
	switch t := v.(type) {
	case *Object:
		return t.Walk(fn)
	case []any:
		for _, item := range t {
			if !walkValue(item, fn) {
				return false
			}
		}
	}
	return true
}

// String implements fmt.Stringer with a compact debug form.
func (e Expr) String() string { return strings.TrimSpace(string(e)) }
