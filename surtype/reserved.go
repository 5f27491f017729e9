package surtype

import (
	"fmt"
	"strings"
	"unicode"
)

// SurrealQLReservedWords is the set of SurrealQL keywords that cannot be
// used as table, edge, or field names without escaping.
var SurrealQLReservedWords = map[string]bool{
	// Statements
	"select": true, "create": true, "update": true, "upsert": true,
	"delete": true, "relate": true, "insert": true, "define": true,
	"remove": true, "info": true, "use": true, "let": true, "live": true,
	"kill": true, "begin": true, "cancel": true, "commit": true,
	"return": true, "show": true, "sleep": true, "rebuild": true,
	// Clauses
	"from": true, "where": true, "group": true, "order": true,
	"limit": true, "start": true, "fetch": true, "omit": true,
	"split": true, "timeout": true, "explain": true, "parallel": true,
	"content": true, "merge": true, "patch": true, "set": true,
	"unset": true, "only": true, "value": true, "values": true,
	"with": true, "when": true, "then": true, "else": true, "end": true,
	"if": true, "for": true, "asc": true, "desc": true,
	"before": true, "after": true, "diff": true,
	// Operators and predicates
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"contains": true, "containsall": true, "containsany": true,
	"containsnone": true, "inside": true, "outside": true,
	"intersects": true, "none": true, "null": true, "true": true,
	"false": true, "all": true, "any": true,
	// Schema objects
	"namespace": true, "database": true, "table": true, "field": true,
	"index": true, "event": true, "function": true, "param": true,
	"analyzer": true, "scope": true, "token": true, "user": true,
	"access": true, "schemafull": true, "schemaless": true,
	"permissions": true, "flexible": true, "type": true, "default": true,
	"assert": true, "readonly": true, "unique": true,
	// Common functions likely to collide
	"count": true, "rand": true, "time": true, "string": true,
	"array": true, "object": true, "math": true, "duration": true,
	"record": true,
}

// IsReservedWord reports whether the given name is a SurrealQL reserved
// keyword. The check is case-insensitive.
func IsReservedWord(name string) bool {
	return SurrealQLReservedWords[strings.ToLower(name)]
}

// ValidateIdentifier checks that a name can be used unescaped in a
// statement. Valid identifiers start with a letter or underscore and
// continue with letters, digits, or underscores.
func ValidateIdentifier(name, context string) error {
	if name == "" {
		return fmt.Errorf("empty %s name", context)
	}
	for i, r := range name {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return &InvalidIdentifierError{
					Name:    name,
					Context: context,
					Reason:  fmt.Sprintf("must start with a letter or underscore, got %q", r),
				}
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return &InvalidIdentifierError{
					Name:    name,
					Context: context,
					Reason:  fmt.Sprintf("invalid character %q at position %d", r, i),
				}
			}
		}
	}
	return nil
}

// InvalidIdentifierError is returned when a name contains characters not
// allowed in SurrealQL identifiers.
type InvalidIdentifierError struct {
	Name    string
	Context string
	Reason  string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s name %q: %s", e.Context, e.Name, e.Reason)
}
