package surtype

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHydrate_Record(t *testing.T) {
	registerTestModels(t)

	data := map[string]any{
		"id":       "person:alice",
		"username": "alice",
		"name":     "Alice",
		"email":    "alice@example.com",
		"age":      float64(34),
		"tags":     []any{"admin", "staff"},
		"joined":   "2024-03-01T12:00:00Z",
	}

	var p Person
	if err := Hydrate(&p, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := p.GetID().String(); got != "person:alice" {
		t.Errorf("ID: got %q, want %q", got, "person:alice")
	}
	if p.Username != "alice" {
		t.Errorf("Username: got %q, want %q", p.Username, "alice")
	}
	if p.Email == nil || *p.Email != "alice@example.com" {
		t.Errorf("Email: got %v, want alice@example.com", p.Email)
	}
	if p.Age != 34 {
		t.Errorf("Age: got %d, want 34", p.Age)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "admin" || p.Tags[1] != "staff" {
		t.Errorf("Tags: got %v, want [admin staff]", p.Tags)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !p.Joined.Equal(want) {
		t.Errorf("Joined: got %v, want %v", p.Joined, want)
	}
}

func TestHydrate_SliceFromSingleValue(t *testing.T) {
	registerTestModels(t)

	var p Person
	err := Hydrate(&p, map[string]any{"tags": "solo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "solo" {
		t.Errorf("Tags: got %v, want [solo]", p.Tags)
	}
}

func TestHydrate_Edge(t *testing.T) {
	registerTestModels(t)

	data := map[string]any{
		"id":       "purchased:xyz",
		"in":       "user:alice",
		"out":      "item:widget",
		"quantity": float64(2),
		"total":    float64(19.98),
	}

	var e Purchased
	if err := Hydrate(&e, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := e.GetIn().String(); got != "user:alice" {
		t.Errorf("In: got %q, want %q", got, "user:alice")
	}
	if got := e.GetOut().String(); got != "item:widget" {
		t.Errorf("Out: got %q, want %q", got, "item:widget")
	}
	if e.Quantity != 2 {
		t.Errorf("Quantity: got %d, want 2", e.Quantity)
	}
	if e.Total != 19.98 {
		t.Errorf("Total: got %v, want 19.98", e.Total)
	}
}

func TestHydrate_SkipsUnknownAndNil(t *testing.T) {
	registerTestModels(t)

	var p Person
	err := Hydrate(&p, map[string]any{
		"username": "bob",
		"email":    nil,
		"bogus":    42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Email != nil {
		t.Errorf("Email: got %v, want nil", p.Email)
	}
}

func TestHydrate_Unregistered(t *testing.T) {
	ClearRegistry()

	var p Person
	var nre *NotRegisteredError
	err := Hydrate(&p, map[string]any{"username": "x"})
	if !errors.As(err, &nre) {
		t.Fatalf("expected NotRegisteredError, got %v", err)
	}
}

func TestHydrate_RequiresPointer(t *testing.T) {
	registerTestModels(t)

	if err := Hydrate(Person{}, map[string]any{}); err == nil {
		t.Fatal("expected error for non-pointer target")
	}
}

func TestHydrate_BadValue(t *testing.T) {
	registerTestModels(t)

	var p Person
	var hydErr *HydrationError
	err := Hydrate(&p, map[string]any{"age": "not a number"})
	if !errors.As(err, &hydErr) {
		t.Fatalf("expected HydrationError, got %v", err)
	}
	if hydErr.Field != "Age" {
		t.Errorf("Field: got %q, want %q", hydErr.Field, "Age")
	}
}

func TestHydrateNew(t *testing.T) {
	registerTestModels(t)

	p, err := HydrateNew[Person](map[string]any{
		"id":       "person:carol",
		"username": "carol",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != "carol" {
		t.Errorf("Username: got %q, want %q", p.Username, "carol")
	}
	if got := p.GetID().String(); got != "person:carol" {
		t.Errorf("ID: got %q, want %q", got, "person:carol")
	}
}

func TestHydrateAll(t *testing.T) {
	registerTestModels(t)

	rows := []map[string]any{
		{"username": "alice", "age": float64(34)},
		{"username": "bob", "age": float64(41)},
	}
	people, err := HydrateAll[Person](rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("len: got %d, want 2", len(people))
	}
	if people[0].Username != "alice" || people[1].Username != "bob" {
		t.Errorf("usernames: got %q, %q", people[0].Username, people[1].Username)
	}

	if got, err := HydrateAll[Person](nil); err != nil || got != nil {
		t.Errorf("empty rows: got %v, %v, want nil, nil", got, err)
	}
}

func TestHydrateAll_BadRowNamed(t *testing.T) {
	registerTestModels(t)

	rows := []map[string]any{
		{"username": "alice"},
		{"age": "not a number"},
	}
	var hydErr *HydrationError
	_, err := HydrateAll[Person](rows)
	if !errors.As(err, &hydErr) {
		t.Fatalf("expected HydrationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("error should name the failing row: %v", err)
	}
}

func TestCoerceToTime_Layouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T12:00:00.5Z", time.Date(2024, 3, 1, 12, 0, 0, 500000000, time.UTC)},
		{"2024-03-01T12:00:00Z", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := coerceToTime(tt.in)
		if err != nil {
			t.Errorf("coerceToTime(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if !got.(time.Time).Equal(tt.want) {
			t.Errorf("coerceToTime(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := coerceToTime("yesterday"); err == nil {
		t.Error("coerceToTime(yesterday): expected error")
	}
}
