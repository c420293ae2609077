package helpers

import (
	"reflect"
	"strconv"
	"strings"
)

// isObject mirrors a typeof check for "object": nil, maps, lists and structs.
func isObject(v interface{}) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr, reflect.Interface:
		return true
	}
	return false
}

func toNumber(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func isNumeric(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr, reflect.Interface:
		return false
	}
	_, ok := toNumber(v)
	return ok
}

// looseEqual follows JavaScript's coercing ==: two strings
// compare as text, a number or boolean pulls the other side to a number,
// and objects never compare equal. Two nils are equal.
func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isObject(a) || isObject(b) {
		return false
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return as == bs
	}
	x, ok := coerce(a)
	if !ok {
		return false
	}
	y, ok := coerce(b)
	if !ok {
		return false
	}
	return x == y
}

func coerce(v interface{}) (float64, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return toNumber(v)
}

// strictEqual requires both sides to be the same kind of scalar. Integers from
// template literals and floats from JSON still compare as numbers.
func strictEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isObject(a) || isObject(b) {
		return false
	}
	if isNumeric(a) && isNumeric(b) {
		_, aBool := a.(bool)
		_, bBool := b.(bool)
		if aBool || bBool {
			return a == b
		}
		x, _ := toNumber(a)
		y, _ := toNumber(b)
		return x == y
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	return aStr && bStr && as == bs
}
