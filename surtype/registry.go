// Package surtype provides a central registry for model metadata.
package surtype

import (
	"fmt"
	"reflect"
	"sync"
)

var globalRegistry = &Registry{
	byName: make(map[string]*ModelInfo),
	byType: make(map[reflect.Type]*ModelInfo),
}

// Registry maintains a mapping between Go struct types and model
// metadata. It is used to look up table and transform information during
// statement generation and hydration.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*ModelInfo
	byType map[reflect.Type]*ModelInfo
}

// Register adds a Go struct type to the global registry. The type T must
// embed either BaseRecord or BaseEdge. Table and field names are
// validated against SurrealQL reserved words, and crypt tags are
// resolved into pipeline descriptors.
func Register[T any]() error {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	info, err := ExtractModelInfo(t)
	if err != nil {
		return fmt.Errorf("registering %s: %w", t.Name(), err)
	}

	kindStr := "table"
	if info.Kind == KindEdge {
		kindStr = "edge"
	}
	if IsReservedWord(info.TableName) {
		return &ReservedWordError{Word: info.TableName, Context: kindStr}
	}
	if err := ValidateIdentifier(info.TableName, kindStr); err != nil {
		return fmt.Errorf("registering %s: %w", t.Name(), err)
	}

	for _, fi := range info.Fields {
		if IsReservedWord(fi.Tag.Name) {
			return &ReservedWordError{Word: fi.Tag.Name, Context: "field"}
		}
		if err := ValidateIdentifier(fi.Tag.Name, "field"); err != nil {
			return fmt.Errorf("registering %s: %w", t.Name(), err)
		}
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if existing, ok := globalRegistry.byName[info.TableName]; ok {
		if existing.GoType != t {
			return fmt.Errorf("table %q already registered to %s", info.TableName, existing.GoType.Name())
		}
	}

	globalRegistry.byName[info.TableName] = info
	globalRegistry.byType[t] = info
	return nil
}

// MustRegister is a helper that calls Register and panics if an error
// occurs. It is intended for use during application initialization.
func MustRegister[T any]() {
	if err := Register[T](); err != nil {
		panic(err)
	}
}

// Lookup retrieves ModelInfo for a given table name.
func Lookup(tableName string) (*ModelInfo, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	info, ok := globalRegistry.byName[tableName]
	return info, ok
}

// LookupType retrieves ModelInfo for a given Go reflect.Type.
func LookupType(t reflect.Type) (*ModelInfo, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	info, ok := globalRegistry.byType[t]
	return info, ok
}

// RegisteredTypes returns a slice containing ModelInfo for all
// registered types.
func RegisteredTypes() []*ModelInfo {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	result := make([]*ModelInfo, 0, len(globalRegistry.byType))
	for _, info := range globalRegistry.byType {
		result = append(result, info)
	}
	return result
}

// ClearRegistry resets the global registry, removing all registered
// models. This is primarily used for testing purposes.
func ClearRegistry() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byName = make(map[string]*ModelInfo)
	globalRegistry.byType = make(map[reflect.Type]*ModelInfo)
}
