// Package surtype provides mechanisms for hydrating Go structs from
// query results.
package surtype

import (
	"fmt"
	"reflect"
	"time"

	"github.com/CaliLuke/go-surreal/surql"
)

// Hydrate populates the fields of a target struct pointer with data from
// a record map. Keys are record field names; "id", "in", and "out" set
// the record id and edge endpoints. The struct type must be registered.
func Hydrate(target any, data map[string]any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer to struct")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", v.Kind())
	}

	info, ok := LookupType(v.Type())
	if !ok {
		return &NotRegisteredError{TypeName: v.Type().Name()}
	}

	if raw, ok := data["id"]; ok {
		if id, ok := thingOf(raw); ok {
			if base := baseRecordOf(v); base != nil {
				base.SetID(id)
			}
		}
	}
	if info.Kind == KindEdge {
		if edge := baseEdgeOf(v); edge != nil {
			if raw, ok := data["in"]; ok {
				if id, ok := thingOf(raw); ok {
					edge.SetIn(id)
				}
			}
			if raw, ok := data["out"]; ok {
				if id, ok := thingOf(raw); ok {
					edge.SetOut(id)
				}
			}
		}
	}

	for _, fi := range info.Fields {
		val, ok := data[fi.Tag.Name]
		if !ok || val == nil {
			continue
		}
		field := v.Field(fi.FieldIndex)
		if err := setFieldValue(field, fi, val); err != nil {
			return &HydrationError{TypeName: info.GoType.Name(), Field: fi.FieldName, Cause: err}
		}
	}

	return nil
}

// HydrateNew is a convenience function that creates a new instance of
// type T, hydrates it with the provided data, and returns a pointer to
// it.
func HydrateNew[T any](data map[string]any) (*T, error) {
	result := new(T)
	if err := Hydrate(result, data); err != nil {
		return nil, err
	}
	return result, nil
}

// HydrateAll hydrates one instance of T per row. The first failing row
// aborts the scan; no partial result is returned.
func HydrateAll[T any](rows []map[string]any) ([]*T, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	instances := make([]*T, 0, len(rows))
	for i, row := range rows {
		instance, err := HydrateNew[T](row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// thingOf converts a wire id value to a Thing. Record ids arrive as
// "table:id" strings in JSON results.
func thingOf(raw any) (surql.Thing, bool) {
	switch v := raw.(type) {
	case surql.Thing:
		return v, true
	case string:
		id, err := surql.ParseThing(v)
		if err != nil {
			return surql.Thing{}, false
		}
		return id, true
	}
	return surql.Thing{}, false
}

func setFieldValue(field reflect.Value, fi FieldInfo, val any) error {
	if fi.IsSlice {
		return setSliceField(field, fi, val)
	}

	converted, err := coerceValue(val, fi)
	if err != nil {
		return err
	}

	if fi.IsPointer {
		ptr := reflect.New(fi.ElemType)
		ptr.Elem().Set(reflect.ValueOf(converted))
		field.Set(ptr)
	} else {
		field.Set(reflect.ValueOf(converted))
	}
	return nil
}

func setSliceField(field reflect.Value, fi FieldInfo, val any) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice {
		// Single value arrives unwrapped when the server flattens a
		// one-element array.
		converted, err := coerceValue(val, fi)
		if err != nil {
			return err
		}
		slice := reflect.MakeSlice(fi.FieldType, 1, 1)
		slice.Index(0).Set(reflect.ValueOf(converted))
		field.Set(slice)
		return nil
	}

	slice := reflect.MakeSlice(fi.FieldType, rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		converted, err := coerceValue(rv.Index(i).Interface(), fi)
		if err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		slice.Index(i).Set(reflect.ValueOf(converted))
	}
	field.Set(slice)
	return nil
}

func coerceValue(val any, fi FieldInfo) (any, error) {
	targetType := fi.ElemType
	if targetType == nil {
		targetType = fi.FieldType
	}
	if targetType.Kind() == reflect.Ptr {
		targetType = targetType.Elem()
	}

	switch fi.ValueKind {
	case "string":
		s, ok := val.(string)
		if !ok {
			s = fmt.Sprintf("%v", val)
		}
		return s, nil

	case "int":
		return coerceToInt(val, targetType)

	case "float":
		return coerceToFloat(val, targetType)

	case "bool":
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", val)
		}
		return b, nil

	case "datetime":
		return coerceToTime(val)

	case "thing":
		id, ok := thingOf(val)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %T to record id", val)
		}
		return id, nil

	default:
		return val, nil
	}
}

func coerceToInt(val any, targetType reflect.Type) (any, error) {
	var i64 int64
	switch v := val.(type) {
	case float64:
		i64 = int64(v)
	case float32:
		i64 = int64(v)
	case int:
		i64 = int64(v)
	case int64:
		i64 = v
	case int32:
		i64 = int64(v)
	case uint64:
		i64 = int64(v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to integer", val)
	}

	switch targetType.Kind() {
	case reflect.Int:
		return int(i64), nil
	case reflect.Int8:
		return int8(i64), nil
	case reflect.Int16:
		return int16(i64), nil
	case reflect.Int32:
		return int32(i64), nil
	case reflect.Int64:
		return i64, nil
	case reflect.Uint:
		return uint(i64), nil
	case reflect.Uint8:
		return uint8(i64), nil
	case reflect.Uint16:
		return uint16(i64), nil
	case reflect.Uint32:
		return uint32(i64), nil
	case reflect.Uint64:
		return uint64(i64), nil
	default:
		return int(i64), nil
	}
}

func coerceToFloat(val any, targetType reflect.Type) (any, error) {
	var f64 float64
	switch v := val.(type) {
	case float64:
		f64 = v
	case float32:
		f64 = float64(v)
	case int:
		f64 = float64(v)
	case int64:
		f64 = float64(v)
	case uint64:
		f64 = float64(v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", val)
	}

	if targetType.Kind() == reflect.Float32 {
		return float32(f64), nil
	}
	return f64, nil
}

func coerceToTime(val any) (any, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02",
		} {
			t, err := time.Parse(layout, v)
			if err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("cannot parse time string: %q", v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to time.Time", val)
	}
}
