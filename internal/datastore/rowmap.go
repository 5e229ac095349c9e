package datastore

import (
	"database/sql/driver"
	"reflect"
)

// rowToMap converts a struct into a map keyed by its db tags. Fields without
// a db tag, or tagged "-", are skipped. driver.Valuer fields such as
// sql.NullString become their underlying value or nil.
func rowToMap[T any](value T) map[string]any {
	result := make(map[string]any)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return result
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return result
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		key := field.Tag.Get("db")
		if key == "" || key == "-" {
			continue
		}
		result[key] = columnValue(v.Field(i))
	}
	return result
}

func columnValue(value reflect.Value) any {
	if valuer, ok := value.Interface().(driver.Valuer); ok {
		v, err := valuer.Value()
		if err != nil {
			return nil
		}
		return v
	}
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		return value.Elem().Interface()
	}
	return value.Interface()
}
