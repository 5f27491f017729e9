package surtype

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRegisterAndLookup(t *testing.T) {
	registerTestModels(t)

	info, ok := Lookup("person")
	if !ok {
		t.Fatal("Lookup(person): not found")
	}
	if info.GoType.Name() != "Person" {
		t.Errorf("GoType: got %s, want Person", info.GoType.Name())
	}

	byType, ok := LookupType(reflect.TypeOf(Person{}))
	if !ok {
		t.Fatal("LookupType(Person): not found")
	}
	if byType != info {
		t.Error("Lookup and LookupType should return the same ModelInfo")
	}

	if _, ok := LookupType(reflect.TypeOf(&Person{})); !ok {
		t.Error("LookupType should accept pointer types")
	}
}

func TestRegister_ReservedTableName(t *testing.T) {
	ClearRegistry()

	type Reserved struct {
		BaseRecord `surreal:",table:select"`
		A          string `surreal:"a"`
	}

	var rwe *ReservedWordError
	err := Register[Reserved]()
	if !errors.As(err, &rwe) {
		t.Fatalf("expected ReservedWordError, got %v", err)
	}
	if rwe.Word != "select" {
		t.Errorf("Word: got %q, want %q", rwe.Word, "select")
	}
}

func TestRegister_ReservedFieldName(t *testing.T) {
	ClearRegistry()

	type BadField struct {
		BaseRecord
		Group string `surreal:"group"`
	}

	var rwe *ReservedWordError
	err := Register[BadField]()
	if !errors.As(err, &rwe) {
		t.Fatalf("expected ReservedWordError, got %v", err)
	}
	if rwe.Context != "field" {
		t.Errorf("Context: got %q, want %q", rwe.Context, "field")
	}
}

func TestRegister_InvalidTableName(t *testing.T) {
	ClearRegistry()

	type BadTable struct {
		BaseRecord `surreal:",table:2fast"`
		A          string `surreal:"a"`
	}

	if err := Register[BadTable](); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRegister_TableCollision(t *testing.T) {
	ClearRegistry()
	MustRegister[Person]()

	type Impostor struct {
		BaseRecord `surreal:",table:person"`
		A          string `surreal:"a"`
	}

	err := Register[Impostor]()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("error: got %q, want mention of already registered", err)
	}
}

func TestRegister_SameTypeTwice(t *testing.T) {
	ClearRegistry()
	MustRegister[Person]()

	if err := Register[Person](); err != nil {
		t.Fatalf("re-registering the same type: %v", err)
	}
}

func TestMustRegister_Panics(t *testing.T) {
	ClearRegistry()

	type NoBase struct {
		A string `surreal:"a"`
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustRegister[NoBase]()
}

func TestRegisteredTypes(t *testing.T) {
	registerTestModels(t)

	if got := len(RegisteredTypes()); got != 3 {
		t.Errorf("RegisteredTypes: got %d, want 3", got)
	}

	ClearRegistry()
	if got := len(RegisteredTypes()); got != 0 {
		t.Errorf("after ClearRegistry: got %d, want 0", got)
	}
}
