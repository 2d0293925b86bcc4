package types

import (
	"encoding"
	"reflect"
	"strings"
)

// Public builds the external representation of an entity: a map keyed by json
// field names with every field tagged `private:"true"` removed. Sensitive or
// internal fields are excluded by marking them on the struct, never by
// touching serialization code. Returns nil for nil pointers and non-structs.
func Public(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if field.Tag.Get("private") == "true" {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		out[name] = publicValue(rv.Field(i))
	}
	return out
}

// PublicSlice applies Public to every element of a slice.
func PublicSlice[T any](items []T) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, Public(items[i]))
	}
	return out
}

func publicValue(v reflect.Value) any {
	if v.CanInterface() {
		// time.Time, uuid.UUID and friends already render as scalars.
		if _, ok := v.Interface().(encoding.TextMarshaler); ok {
			return v.Interface()
		}
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return publicValue(v.Elem())
	case reflect.Struct:
		return Public(v.Interface())
	case reflect.Slice, reflect.Array:
		items := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = publicValue(v.Index(i))
		}
		return items
	default:
		return v.Interface()
	}
}
