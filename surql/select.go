package surql

import (
	"fmt"
	"strings"
	"time"
)

// SelectBuilder assembles a SELECT statement. Clauses may be populated in
// any order; Build always renders them in the order the grammar expects.
type SelectBuilder struct {
	target     string
	only       bool
	projection []string
	where      Where
	groupBy    GroupBy
	orderBy    OrderBy
	window     LimitStart
	fetch      Fetch
	omit       Omit
	split      Split
	timeout    Timeout
	explain    Explain
}

// Select creates a SELECT builder reading from target, which may be a
// table name, a table:id string, or a Thing.
func Select(target any) *SelectBuilder {
	return &SelectBuilder{target: targetString(target)}
}

// Fields sets the projection. Without it the statement selects *.
func (b *SelectBuilder) Fields(fields ...string) *SelectBuilder {
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			b.projection = append(b.projection, f)
		}
	}
	return b
}

// Only marks the target as a single-record read (SELECT ... FROM ONLY).
func (b *SelectBuilder) Only() *SelectBuilder {
	b.only = true
	return b
}

// Where adds a raw condition fragment to the filter clause.
func (b *SelectBuilder) Where(cond string) *SelectBuilder {
	b.where.Add(cond)
	return b
}

// WhereCond adds composed conditions to the filter clause.
func (b *SelectBuilder) WhereCond(conds ...Cond) *SelectBuilder {
	for _, c := range conds {
		if c != nil {
			b.where.Add(c.Expr())
		}
	}
	return b
}

// GroupBy adds grouping fields.
func (b *SelectBuilder) GroupBy(fields ...string) *SelectBuilder {
	b.groupBy.Add(fields...)
	return b
}

// OrderBy sorts ascending on field.
func (b *SelectBuilder) OrderBy(field string) *SelectBuilder {
	b.orderBy.Set(field).Dir(Asc)
	return b
}

// OrderByDesc sorts descending on field.
func (b *SelectBuilder) OrderByDesc(field string) *SelectBuilder {
	b.orderBy.Set(field).Dir(Desc)
	return b
}

// Limit caps the number of returned records.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.window.SetLimit(n)
	return b
}

// Start skips the first n records of the result window.
func (b *SelectBuilder) Start(n int) *SelectBuilder {
	b.window.SetStart(n)
	return b
}

// Fetch resolves the named record-link fields inline.
func (b *SelectBuilder) Fetch(fields ...string) *SelectBuilder {
	b.fetch.Add(fields...)
	return b
}

// Omit strips the named fields from the result.
func (b *SelectBuilder) Omit(fields ...string) *SelectBuilder {
	b.omit.Add(fields...)
	return b
}

// Split fans the result out on the named array-valued fields.
func (b *SelectBuilder) Split(fields ...string) *SelectBuilder {
	b.split.Add(fields...)
	return b
}

// Timeout bounds server-side execution time.
func (b *SelectBuilder) Timeout(d time.Duration) *SelectBuilder {
	b.timeout.Set(d)
	return b
}

// Explain asks for the statement plan instead of rows.
func (b *SelectBuilder) Explain() *SelectBuilder {
	b.explain.Set()
	return b
}

// ExplainFull asks for the statement plan with per-operation detail.
func (b *SelectBuilder) ExplainFull() *SelectBuilder {
	b.explain.SetFull()
	return b
}

// Build renders the statement. It fails when no target was given.
func (b *SelectBuilder) Build() (string, error) {
	if b.target == "" {
		return "", &MissingTargetError{Builder: "select", Part: "from target"}
	}
	projection := "*"
	if len(b.projection) > 0 {
		projection = strings.Join(b.projection, ", ")
	}
	from := b.target
	if b.only {
		from = "ONLY " + from
	}
	head := fmt.Sprintf("SELECT %s FROM %s", projection, from)
	tail := renderInOrder(
		b.where.Render(),
		b.groupBy.Render(),
		b.orderBy.Render(),
		b.window.Render(),
		b.fetch.Render(),
		b.omit.Render(),
		b.split.Render(),
		b.timeout.Render(),
		b.explain.Render(),
	)
	if tail == "" {
		return head, nil
	}
	return head + " " + tail, nil
}

// targetString normalizes the supported target forms to statement text.
func targetString(target any) string {
	switch t := target.(type) {
	case string:
		return strings.TrimSpace(t)
	case Thing:
		return t.String()
	case *Thing:
		if t == nil {
			return ""
		}
		return t.String()
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}
