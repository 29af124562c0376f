package binder

import (
	"encoding"
	"fmt"
	"net/http"
	"reflect"
)

var textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()

// Path fills fields tagged `path:"name"` with values returned by extractor,
// e.g. chi.URLParam. Supported field types are string and any type whose
// pointer implements encoding.TextUnmarshaler, such as uuid.UUID.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidPath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rt.NumField() {
			field := rt.Field(i)
			name := field.Tag.Get("path")
			if name == "" || name == "-" || !field.IsExported() {
				continue
			}

			value := extractor(r, name)
			if value == "" {
				continue
			}

			fv := rv.Field(i)
			switch {
			case fv.Kind() == reflect.String:
				fv.SetString(value)
			case reflect.PointerTo(fv.Type()).Implements(textUnmarshaler):
				u := fv.Addr().Interface().(encoding.TextUnmarshaler)
				if err := u.UnmarshalText([]byte(value)); err != nil {
					return fmt.Errorf("%w: %s: %v", ErrInvalidPath, name, err)
				}
			default:
				return fmt.Errorf("%w: %s: unsupported field type %s", ErrInvalidPath, name, fv.Type())
			}
		}
		return nil
	}
}
