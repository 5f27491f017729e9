package surql

import (
	"fmt"
	"strings"
	"time"
)

// ReturnMode selects which record state a mutation statement returns.
type ReturnMode int

const (
	ReturnAfter ReturnMode = iota
	ReturnBefore
	ReturnDiff
	ReturnNone
)

func (m ReturnMode) String() string {
	switch m {
	case ReturnBefore:
		return "BEFORE"
	case ReturnDiff:
		return "DIFF"
	case ReturnNone:
		return "NONE"
	default:
		return "AFTER"
	}
}

// setEntry is one field assignment of a SET clause.
type setEntry struct {
	field string
	value any
}

func renderSet(entries []setEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s = %s", e.field, FormatValue(e.value))
	}
	return "SET " + strings.Join(parts, ", ")
}

// CreateBuilder assembles a CREATE statement.
type CreateBuilder struct {
	target  string
	content any
	sets    []setEntry
	ret     ReturnMode
	hasRet  bool
	timeout Timeout
}

// Create creates a CREATE builder for target, which may be a table name,
// a table:id string, or a Thing.
func Create(target any) *CreateBuilder {
	return &CreateBuilder{target: targetString(target)}
}

// Content supplies the full record body, serialized as JSON.
func (b *CreateBuilder) Content(data any) *CreateBuilder {
	b.content = data
	return b
}

// Set adds a single field assignment instead of a full body.
func (b *CreateBuilder) Set(field string, value any) *CreateBuilder {
	b.sets = append(b.sets, setEntry{field: field, value: value})
	return b
}

// Return selects which record state the statement returns.
func (b *CreateBuilder) Return(m ReturnMode) *CreateBuilder {
	b.ret = m
	b.hasRet = true
	return b
}

// Timeout bounds server-side execution time.
func (b *CreateBuilder) Timeout(d time.Duration) *CreateBuilder {
	b.timeout.Set(d)
	return b
}

// Build renders the statement.
func (b *CreateBuilder) Build() (string, error) {
	if b.target == "" {
		return "", &MissingTargetError{Builder: "create", Part: "target"}
	}
	if b.content != nil && len(b.sets) > 0 {
		return "", &ConfigurationError{Builder: "create", Message: "CONTENT and SET are mutually exclusive"}
	}
	parts := []string{"CREATE " + b.target}
	if b.content != nil {
		body, err := marshalContent(b.content)
		if err != nil {
			return "", err
		}
		parts = append(parts, "CONTENT "+body)
	} else if len(b.sets) > 0 {
		parts = append(parts, renderSet(b.sets))
	}
	if b.hasRet {
		parts = append(parts, "RETURN "+b.ret.String())
	}
	if s := b.timeout.Render(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}

// UpdateBuilder assembles an UPDATE statement. Exactly one data mode may
// be used: CONTENT replaces the record, MERGE patches it, SET assigns
// individual fields.
type UpdateBuilder struct {
	target  string
	content any
	merge   any
	sets    []setEntry
	where   Where
	ret     ReturnMode
	hasRet  bool
	timeout Timeout
}

// Update creates an UPDATE builder for target.
func Update(target any) *UpdateBuilder {
	return &UpdateBuilder{target: targetString(target)}
}

// Content replaces the whole record body.
func (b *UpdateBuilder) Content(data any) *UpdateBuilder {
	b.content = data
	return b
}

// Merge patches the record with the given fields.
func (b *UpdateBuilder) Merge(data any) *UpdateBuilder {
	b.merge = data
	return b
}

// Set adds a single field assignment.
func (b *UpdateBuilder) Set(field string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setEntry{field: field, value: value})
	return b
}

// Where adds a raw condition fragment to the filter clause.
func (b *UpdateBuilder) Where(cond string) *UpdateBuilder {
	b.where.Add(cond)
	return b
}

// WhereCond adds composed conditions to the filter clause.
func (b *UpdateBuilder) WhereCond(conds ...Cond) *UpdateBuilder {
	for _, c := range conds {
		if c != nil {
			b.where.Add(c.Expr())
		}
	}
	return b
}

// Return selects which record state the statement returns.
func (b *UpdateBuilder) Return(m ReturnMode) *UpdateBuilder {
	b.ret = m
	b.hasRet = true
	return b
}

// Timeout bounds server-side execution time.
func (b *UpdateBuilder) Timeout(d time.Duration) *UpdateBuilder {
	b.timeout.Set(d)
	return b
}

// Build renders the statement.
func (b *UpdateBuilder) Build() (string, error) {
	if b.target == "" {
		return "", &MissingTargetError{Builder: "update", Part: "target"}
	}
	modes := 0
	if b.content != nil {
		modes++
	}
	if b.merge != nil {
		modes++
	}
	if len(b.sets) > 0 {
		modes++
	}
	if modes > 1 {
		return "", &ConfigurationError{Builder: "update", Message: "CONTENT, MERGE and SET are mutually exclusive"}
	}
	parts := []string{"UPDATE " + b.target}
	switch {
	case b.content != nil:
		body, err := marshalContent(b.content)
		if err != nil {
			return "", err
		}
		parts = append(parts, "CONTENT "+body)
	case b.merge != nil:
		body, err := marshalContent(b.merge)
		if err != nil {
			return "", err
		}
		parts = append(parts, "MERGE "+body)
	case len(b.sets) > 0:
		parts = append(parts, renderSet(b.sets))
	}
	if s := b.where.Render(); s != "" {
		parts = append(parts, s)
	}
	if b.hasRet {
		parts = append(parts, "RETURN "+b.ret.String())
	}
	if s := b.timeout.Render(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}

// DeleteBuilder assembles a DELETE statement.
type DeleteBuilder struct {
	target  string
	where   Where
	ret     ReturnMode
	hasRet  bool
	timeout Timeout
}

// Delete creates a DELETE builder for target.
func Delete(target any) *DeleteBuilder {
	return &DeleteBuilder{target: targetString(target)}
}

// Where adds a raw condition fragment to the filter clause.
func (b *DeleteBuilder) Where(cond string) *DeleteBuilder {
	b.where.Add(cond)
	return b
}

// WhereCond adds composed conditions to the filter clause.
func (b *DeleteBuilder) WhereCond(conds ...Cond) *DeleteBuilder {
	for _, c := range conds {
		if c != nil {
			b.where.Add(c.Expr())
		}
	}
	return b
}

// Return selects which record state the statement returns.
func (b *DeleteBuilder) Return(m ReturnMode) *DeleteBuilder {
	b.ret = m
	b.hasRet = true
	return b
}

// Timeout bounds server-side execution time.
func (b *DeleteBuilder) Timeout(d time.Duration) *DeleteBuilder {
	b.timeout.Set(d)
	return b
}

// Build renders the statement.
func (b *DeleteBuilder) Build() (string, error) {
	if b.target == "" {
		return "", &MissingTargetError{Builder: "delete", Part: "target"}
	}
	parts := []string{"DELETE " + b.target}
	if s := b.where.Render(); s != "" {
		parts = append(parts, s)
	}
	if b.hasRet {
		parts = append(parts, "RETURN "+b.ret.String())
	}
	if s := b.timeout.Render(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}
