// Package surtype defines error types for mapping and migration
// operations.
package surtype

import "fmt"

// NotRegisteredError is returned when an operation is attempted on a Go
// type that has not been registered.
type NotRegisteredError struct {
	TypeName string
}

// Error returns the error message for NotRegisteredError.
func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("type %q is not registered", e.TypeName)
}

// MappingError is returned when a struct cannot be mapped to a table
// record, for example a crypt tag on a non-string field.
type MappingError struct {
	TypeName string
	Field    string
	Message  string
}

// Error returns the error message for MappingError.
func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mapping %s: %s", e.TypeName, e.Message)
	}
	return fmt.Sprintf("mapping %s.%s: %s", e.TypeName, e.Field, e.Message)
}

// HydrationError is returned when an error occurs while populating a Go
// struct with data from a query result.
type HydrationError struct {
	TypeName string
	Field    string
	Cause    error
}

// Error returns the error message for HydrationError.
func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydrating %s.%s: %v", e.TypeName, e.Field, e.Cause)
}

// Unwrap returns the underlying cause of the HydrationError.
func (e *HydrationError) Unwrap() error {
	return e.Cause
}

// ReservedWordError is returned when a SurrealQL reserved keyword is
// used as a table or field name.
type ReservedWordError struct {
	Word    string
	Context string // "table", "field", "edge"
}

// Error returns the error message for ReservedWordError.
func (e *ReservedWordError) Error() string {
	return fmt.Sprintf("surtype: %q is a SurrealQL reserved keyword and cannot be used as %s name",
		e.Word, e.Context)
}

// NotFoundError is returned when a query expected to return an instance
// finds no matching record.
type NotFoundError struct {
	TypeName string
}

// Error returns the error message for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.TypeName)
}

// StatementError is returned when a statement executed by a manager or
// the migration runner fails on the server.
type StatementError struct {
	Statement string
	Cause     error
}

// Error returns the error message for StatementError.
func (e *StatementError) Error() string {
	return fmt.Sprintf("executing %q: %v", abridge(e.Statement), e.Cause)
}

// Unwrap returns the underlying cause of the StatementError.
func (e *StatementError) Unwrap() error {
	return e.Cause
}

func abridge(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
