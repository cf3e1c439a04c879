package xlbind

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Lookup resolves a dotted field path against a domain record. Maps are
// indexed by key, structs by field name or json tag, slices by position.
// The second result is false when any segment is missing; a present nil
// field resolves to (nil, true).
func Lookup(record any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := record
	for _, seg := range strings.Split(path, ".") {
		next, ok := lookupSegment(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func lookupSegment(v any, seg string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		x, found := m[seg]
		return x, found
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		x := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !x.IsValid() {
			return nil, false
		}
		return x.Interface(), true
	case reflect.Struct:
		return structField(rv, seg)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

func structField(rv reflect.Value, seg string) (any, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == seg || (tag == "" && f.Name == seg) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// IsPlainPath reports whether path is a dotted chain of identifiers (or
// indexes) that Lookup can resolve without evaluating an expression.
func IsPlainPath(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return false
		}
		for _, r := range seg {
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}
