package surql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Thing is a record id: a table name plus a record key, rendered as
// table:id. Keys that are not plain identifiers are wrapped in angle
// brackets so the server reads them as a single token.
type Thing struct {
	Table string
	ID    string
}

// NewThing builds a record id from its two halves.
func NewThing(table, id string) Thing {
	return Thing{Table: table, ID: id}
}

// ParseThing splits a table:id string at the first colon. Angle-bracket
// escaping on either half is undone, so parsing a rendered id gives back
// the original halves.
func ParseThing(s string) (Thing, error) {
	table, id, ok := strings.Cut(s, ":")
	if !ok || table == "" || id == "" {
		return Thing{}, fmt.Errorf("surql: %q is not a table:id record id", s)
	}
	return Thing{Table: unescapeIdent(table), ID: unescapeIdent(id)}, nil
}

func (t Thing) String() string {
	return escapeIdent(t.Table) + ":" + escapeIdent(t.ID)
}

// IsZero reports whether both halves are unset.
func (t Thing) IsZero() bool {
	return t.Table == "" && t.ID == ""
}

// MarshalJSON renders the id in its wire form, a "table:id" string.
func (t Thing) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON reads the "table:id" wire form.
func (t *Thing) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseThing(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// escapeIdent wraps anything that is not a plain identifier in angle
// brackets, escaping a literal closing bracket with a backslash.
func escapeIdent(s string) string {
	if isPlainIdent(s) {
		return s
	}
	return "⟨" + strings.ReplaceAll(s, "⟩", "\\⟩") + "⟩"
}

// unescapeIdent removes the angle-bracket wrapping escapeIdent applies.
// Unwrapped input passes through untouched.
func unescapeIdent(s string) string {
	const opening, closing = "⟨", "⟩"
	if len(s) < len(opening)+len(closing) ||
		!strings.HasPrefix(s, opening) || !strings.HasSuffix(s, closing) {
		return s
	}
	inner := s[len(opening) : len(s)-len(closing)]
	return strings.ReplaceAll(inner, "\\"+closing, closing)
}

// isPlainIdent accepts identifier-shaped strings. All-digit strings are
// rejected so a string key like "8914" keeps its type once rendered.
func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	digitsOnly := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			digitsOnly = false
		case r >= 'A' && r <= 'Z':
			digitsOnly = false
		case r == '_':
			digitsOnly = false
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return !digitsOnly
}
