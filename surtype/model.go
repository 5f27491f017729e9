package surtype

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/CaliLuke/go-surreal/fieldenc"
	"github.com/CaliLuke/go-surreal/surql"
)

// ModelKind specifies whether a registered model is a plain table record
// or a graph edge.
type ModelKind int

const (
	// KindRecord represents a table record type.
	KindRecord ModelKind = iota
	// KindEdge represents a graph edge type.
	KindEdge
)

// FieldInfo contains metadata about a single field in a model struct,
// mapping it to a record field.
type FieldInfo struct {
	// Tag is the parsed 'surreal' struct tag.
	Tag FieldTag
	// FieldName is the name of the field in the Go struct.
	FieldName string
	// FieldIndex is the 0-based index of the field in the Go struct.
	FieldIndex int
	// FieldType is the reflection type of the field.
	FieldType reflect.Type
	// IsPointer is true if the field is a pointer, used for optional fields.
	IsPointer bool
	// IsSlice is true if the field is a slice.
	IsSlice bool
	// ElemType is the base element type for slices and pointers.
	ElemType reflect.Type
	// ValueKind is the wire value kind ("string", "int", "float",
	// "bool", "datetime", "thing", "any").
	ValueKind string
}

// ModelInfo contains metadata about a registered model, including its
// mapping to a Go struct and the field transforms derived from its tags.
type ModelInfo struct {
	// GoType is the reflection type of the Go struct.
	GoType reflect.Type
	// Kind indicates whether this model is a record or an edge.
	Kind ModelKind
	// TableName is the table (or edge table) the struct maps to.
	TableName string
	// Fields is a list of metadata for each tagged field.
	Fields []FieldInfo
	// KeyIndex is the index into Fields of the field whose value becomes
	// the record id, or -1 when ids are server-generated.
	KeyIndex int
	// Descriptors lists the field transforms derived from crypt tags,
	// ready to configure a fieldenc.Pipeline.
	Descriptors []fieldenc.FieldDescriptor
}

// FieldByName retrieves FieldInfo by the Go struct field name.
func (m *ModelInfo) FieldByName(name string) (FieldInfo, bool) {
	for _, f := range m.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// FieldByDBName retrieves FieldInfo by the record field name.
func (m *ModelInfo) FieldByDBName(name string) (FieldInfo, bool) {
	for _, f := range m.Fields {
		if f.Tag.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// KeyField returns the field marked as key, if any.
func (m *ModelInfo) KeyField() (FieldInfo, bool) {
	if m.KeyIndex < 0 {
		return FieldInfo{}, false
	}
	return m.Fields[m.KeyIndex], true
}

// ExtractModelInfo analyzes a Go struct type and extracts its model
// metadata. The struct must embed BaseRecord or BaseEdge.
func ExtractModelInfo(t reflect.Type) (*ModelInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %s", t.Kind())
	}

	info := &ModelInfo{
		GoType:   t,
		KeyIndex: -1,
	}

	kind, err := detectModelKind(t)
	if err != nil {
		return nil, err
	}
	info.Kind = kind

	// Default table name: snake_case struct name (e.g. UserAccount → user_account)
	info.TableName = toSnakeCase(t.Name())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// An embedded base may carry a table override; nothing else on
		// anonymous fields is read.
		if field.Anonymous {
			if tagStr := field.Tag.Get("surreal"); tagStr != "" && tagStr != "-" {
				tag, err := ParseTag(tagStr)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", field.Name, err)
				}
				if tag.TableName != "" {
					info.TableName = tag.TableName
				}
			}
			continue
		}
		if !field.IsExported() {
			continue
		}

		tagStr := field.Tag.Get("surreal")
		if tagStr == "" || tagStr == "-" {
			continue
		}

		tag, err := ParseTag(tagStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if tag.Skip {
			continue
		}

		if tag.TableName != "" {
			info.TableName = tag.TableName
			if tag.Name == "" {
				continue
			}
		}
		if tag.Name == "" {
			return nil, &MappingError{TypeName: t.Name(), Field: field.Name,
				Message: "tag has options but no field name"}
		}

		fi := buildFieldInfo(field, i, tag)
		if tag.HasCrypt {
			if fi.ValueKind != "string" || fi.IsSlice {
				return nil, &MappingError{TypeName: t.Name(), Field: field.Name,
					Message: fmt.Sprintf("crypt=%s requires a string field", tag.Crypt)}
			}
			info.Descriptors = append(info.Descriptors, fieldenc.FieldDescriptor{
				Field:    tag.Name,
				Algo:     tag.Crypt,
				Strength: tag.Strength,
			})
		}
		if tag.Key {
			if info.KeyIndex >= 0 {
				return nil, &MappingError{TypeName: t.Name(), Field: field.Name,
					Message: "more than one field marked as key"}
			}
			if fi.IsSlice || fi.IsPointer || (fi.ValueKind != "string" && fi.ValueKind != "int") {
				return nil, &MappingError{TypeName: t.Name(), Field: field.Name,
					Message: "key field must be a plain string or integer"}
			}
			info.KeyIndex = len(info.Fields)
		}
		info.Fields = append(info.Fields, fi)
	}

	return info, nil
}

func detectModelKind(t reflect.Type) (ModelKind, error) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}
		switch field.Type {
		case reflect.TypeOf(BaseEdge{}):
			return KindEdge, nil
		case reflect.TypeOf(BaseRecord{}):
			return KindRecord, nil
		}
	}
	return 0, fmt.Errorf("type %s must embed BaseRecord or BaseEdge", t.Name())
}

func buildFieldInfo(field reflect.StructField, index int, tag FieldTag) FieldInfo {
	fi := FieldInfo{
		Tag:        tag,
		FieldName:  field.Name,
		FieldIndex: index,
		FieldType:  field.Type,
	}

	ft := field.Type
	if ft.Kind() == reflect.Ptr {
		fi.IsPointer = true
		fi.ElemType = ft.Elem()
		ft = ft.Elem()
	}
	if ft.Kind() == reflect.Slice {
		fi.IsSlice = true
		fi.ElemType = ft.Elem()
		ft = ft.Elem()
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
	}

	fi.ValueKind = valueKindOf(ft)
	return fi
}

// ToBag converts a registered model instance to a map[string]any keyed
// by record field names. Includes "id" if the record id is set; nil
// optional fields are omitted.
func ToBag[T any](instance *T) (map[string]any, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	info, ok := LookupType(t)
	if !ok {
		return nil, &NotRegisteredError{TypeName: t.Name()}
	}

	v := reflect.ValueOf(instance).Elem()
	bag := bagFromValue(info, v)
	if base := baseRecordOf(v); base != nil && !base.GetID().IsZero() {
		bag["id"] = base.GetID().String()
	}
	return bag, nil
}

// bagFromValue builds the value bag for statement content. The record id
// is not included; statement targets carry it.
func bagFromValue(info *ModelInfo, v reflect.Value) map[string]any {
	bag := make(map[string]any, len(info.Fields))
	for _, fi := range info.Fields {
		field := v.Field(fi.FieldIndex)
		if fi.IsPointer {
			if field.IsNil() {
				continue
			}
			bag[fi.Tag.Name] = field.Elem().Interface()
		} else {
			bag[fi.Tag.Name] = field.Interface()
		}
	}
	return bag
}

// setDBField assigns a raw value to the struct field mapped to the given
// record field name. Used to persist one-way hashes back onto the
// caller's instance.
func setDBField(info *ModelInfo, v reflect.Value, name string, value any) {
	fi, ok := info.FieldByDBName(name)
	if !ok {
		return
	}
	field := v.Field(fi.FieldIndex)
	rv := reflect.ValueOf(value)
	if fi.IsPointer {
		if rv.Type() != fi.ElemType {
			return
		}
		ptr := reflect.New(fi.ElemType)
		ptr.Elem().Set(rv)
		field.Set(ptr)
		return
	}
	if rv.Type() != field.Type() {
		return
	}
	field.Set(rv)
}

// baseRecordOf returns the embedded BaseRecord of an addressable struct
// value, or nil when the struct embeds neither base type.
func baseRecordOf(v reflect.Value) *BaseRecord {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !v.Type().Field(i).Anonymous || !field.CanAddr() {
			continue
		}
		switch addr := field.Addr().Interface().(type) {
		case *BaseRecord:
			return addr
		case *BaseEdge:
			return &addr.BaseRecord
		}
	}
	return nil
}

// baseEdgeOf returns the embedded BaseEdge, or nil for plain records.
func baseEdgeOf(v reflect.Value) *BaseEdge {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !v.Type().Field(i).Anonymous || !field.CanAddr() {
			continue
		}
		if addr, ok := field.Addr().Interface().(*BaseEdge); ok {
			return addr
		}
	}
	return nil
}

// toSnakeCase converts a PascalCase Go struct name to snake_case.
// e.g. "UserAccount" → "user_account"
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteByte(byte(r - 'A' + 'a'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// valueKindOf maps Go types to wire value kinds used during hydration.
func valueKindOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	default:
		switch t {
		case reflect.TypeOf(time.Time{}):
			return "datetime"
		case reflect.TypeOf(surql.Thing{}):
			return "thing"
		}
		return "any"
	}
}
