package helper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FilterStructFields returns the named fields of the struct v, keyed by the names given.
// A name matches a Go field name or its json tag name. Without names, every exported field
// is returned under its json name, or its Go name when untagged.
func FilterStructFields(v any, names ...string) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.New("nil struct pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct, got %s", rv.Kind())
	}

	fields := make(map[string]reflect.Value)
	var all []string
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			fields[tag] = rv.Field(i)
			name = tag
		}
		fields[f.Name] = rv.Field(i)
		all = append(all, name)
	}
	if len(names) == 0 {
		names = all
	}

	filtered := make(map[string]any, len(names))
	for _, name := range names {
		field, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("struct %s has no field %q", rt.Name(), name)
		}
		filtered[name] = field.Interface()
	}

	return filtered, nil
}
