package surql

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/CaliLuke/go-surreal/fieldenc"
)

func TestRelate_RendersArrowChainWithContent(t *testing.T) {
	q, err := Relate().
		From("user:alice").
		To("product:laptop").
		Via("purchased").
		WithData(map[string]any{"price": 999.99}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, `RELATE user:alice->purchased->product:laptop CONTENT {"price":999.99} RETURN AFTER`, q)
}

func TestRelate_ThingEndpoints(t *testing.T) {
	q, err := Relate().
		From(NewThing("user", "alice")).
		To(NewThing("org", "acme")).
		Via("member_of").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, "RELATE user:alice->member_of->org:acme RETURN AFTER", q)
}

func TestRelate_ReturnModeOverridable(t *testing.T) {
	q, err := Relate().
		From("user:alice").To("org:acme").Via("member_of").
		Return(ReturnNone).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, "RELATE user:alice->member_of->org:acme RETURN NONE", q)
}

func TestRelate_MissingFrom(t *testing.T) {
	_, err := Relate().To("org:acme").Via("member_of").Build()
	var mt *MissingTargetError
	if !errors.As(err, &mt) {
		t.Fatalf("expected MissingTargetError, got %v", err)
	}
	assertContains(t, mt.Error(), "from endpoint")
}

func TestRelate_MissingTo(t *testing.T) {
	_, err := Relate().From("user:alice").Via("member_of").Build()
	var mt *MissingTargetError
	if !errors.As(err, &mt) {
		t.Fatalf("expected MissingTargetError, got %v", err)
	}
	assertContains(t, mt.Error(), "to endpoint")
}

func TestRelate_MissingEdge(t *testing.T) {
	_, err := Relate().From("user:alice").To("org:acme").Build()
	var mt *MissingTargetError
	if !errors.As(err, &mt) {
		t.Fatalf("expected MissingTargetError, got %v", err)
	}
	assertContains(t, mt.Error(), "edge table")
}

func TestRelate_EntityAndDataExclusive(t *testing.T) {
	_, err := Relate().
		From("user:alice").To("org:acme").Via("member_of").
		With("since", 2020).
		WithEntity(map[string]any{"role": "admin"}, false).
		Build()
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRelate_EncryptWithoutPipeline(t *testing.T) {
	_, err := Relate().
		From("user:alice").To("org:acme").Via("member_of").
		WithEntity(map[string]any{"ssn": "123-45-6789"}, true).
		Build()
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

// Reversible fields must come back to the caller's bag untouched after a
// build, while one-way hashed fields keep their hashes.
func TestRelate_EncryptRestoresReversibleFields(t *testing.T) {
	key := bytes.Repeat([]byte{0x2a}, 32)
	pipe, err := fieldenc.NewPipeline(fieldenc.SingleKey(key),
		fieldenc.FieldDescriptor{Field: "ssn", Algo: fieldenc.AESGCM},
		fieldenc.FieldDescriptor{Field: "password", Algo: fieldenc.Bcrypt, Strength: 4},
	)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	bag := map[string]any{"ssn": "123-45-6789", "password": "hunter2"}

	q, err := Relate().
		From("user:alice").To("org:acme").Via("member_of").
		WithEntity(bag, true).
		Encrypt(pipe).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	assertNotContains(t, q, "123-45-6789")
	assertNotContains(t, q, "hunter2")
	assertContains(t, q, "enc:v1:aes-gcm:")

	if bag["ssn"] != "123-45-6789" {
		t.Errorf("reversible field not restored, got %v", bag["ssn"])
	}
	pw, _ := bag["password"].(string)
	if pw == "hunter2" || !strings.HasPrefix(pw, "$2a$") {
		t.Errorf("one-way field should stay hashed, got %q", pw)
	}
}

func TestRelate_EntityWithoutEncryptionSerializesPlain(t *testing.T) {
	bag := map[string]any{"role": "admin"}
	q, err := Relate().
		From("user:alice").To("org:acme").Via("member_of").
		WithEntity(bag, false).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertContains(t, q, `CONTENT {"role":"admin"}`)
	if bag["role"] != "admin" {
		t.Errorf("bag mutated without encryption: %v", bag["role"])
	}
}
