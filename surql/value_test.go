package surql

import (
	"encoding/json"
	"testing"
	"time"
)

func TestThing_PlainIdentifiers(t *testing.T) {
	assertEqual(t, "user:alice", NewThing("user", "alice").String())
}

func TestThing_EscapesNonIdentifierKeys(t *testing.T) {
	assertEqual(t, "user:⟨alice smith⟩", NewThing("user", "alice smith").String())
	assertEqual(t, "user:⟨8914⟩", NewThing("user", "8914").String())
}

func TestThing_EscapesClosingBracket(t *testing.T) {
	got := NewThing("user", "a⟩b").String()
	assertEqual(t, "user:⟨a\\⟩b⟩", got)
}

func TestParseThing(t *testing.T) {
	th, err := ParseThing("user:alice")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assertEqual(t, "user", th.Table)
	assertEqual(t, "alice", th.ID)
}

func TestParseThing_KeepsColonsInID(t *testing.T) {
	th, err := ParseThing("log:2024:01:15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assertEqual(t, "log", th.Table)
	assertEqual(t, "2024:01:15", th.ID)
}

func TestParseThing_RejectsBareTable(t *testing.T) {
	if _, err := ParseThing("user"); err == nil {
		t.Error("expected an error for a record id without a colon")
	}
}

func TestParseThing_UnescapesBracketedID(t *testing.T) {
	th, err := ParseThing("user:⟨alice smith⟩")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assertEqual(t, "user", th.Table)
	assertEqual(t, "alice smith", th.ID)
}

func TestThing_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewThing("user", "alice smith"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertEqual(t, `"user:⟨alice smith⟩"`, string(data))

	var th Thing
	if err := json.Unmarshal(data, &th); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	assertEqual(t, "user", th.Table)
	assertEqual(t, "alice smith", th.ID)
}

func TestThing_UnmarshalRejectsBareString(t *testing.T) {
	var th Thing
	if err := json.Unmarshal([]byte(`"user"`), &th); err == nil {
		t.Error("expected an error for a record id without a colon")
	}
}

func TestFormatValue_Scalars(t *testing.T) {
	assertEqual(t, "NONE", FormatValue(nil))
	assertEqual(t, `"Alice"`, FormatValue("Alice"))
	assertEqual(t, "true", FormatValue(true))
	assertEqual(t, "42", FormatValue(42))
	assertEqual(t, "999.99", FormatValue(999.99))
}

func TestFormatValue_EscapesStrings(t *testing.T) {
	assertEqual(t, `"he said \"hi\""`, FormatValue(`he said "hi"`))
	assertEqual(t, `"line\nbreak"`, FormatValue("line\nbreak"))
}

func TestFormatValue_ThingRendersBare(t *testing.T) {
	assertEqual(t, "user:alice", FormatValue(NewThing("user", "alice")))
}

func TestFormatValue_Time(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	assertEqual(t, "d'2024-01-15T09:30:00Z'", FormatValue(ts))
}

func TestFormatValue_Slice(t *testing.T) {
	assertEqual(t, "[1, 2, 3]", FormatValue([]int{1, 2, 3}))
	assertEqual(t, `["a", "b"]`, FormatValue([]string{"a", "b"}))
}

func TestFormatValue_NilPointer(t *testing.T) {
	var p *int
	assertEqual(t, "NONE", FormatValue(p))
}

func TestFormatDuration(t *testing.T) {
	assertEqual(t, "1h30m", formatDuration(90*time.Minute))
	assertEqual(t, "2s500ms", formatDuration(2*time.Second+500*time.Millisecond))
	assertEqual(t, "0s", formatDuration(0))
}

func TestMarshalContent_SortsKeys(t *testing.T) {
	body, err := marshalContent(map[string]any{"b": 1, "a": 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertEqual(t, `{"a":2,"b":1}`, body)
}
