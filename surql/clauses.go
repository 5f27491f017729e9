// Package surql builds SurrealQL statement text from composable parts.
//
// Statements are assembled from clause values (Where, GroupBy, OrderBy,
// LimitStart, Fetch, Omit, Split, Timeout, Explain) that each know how to
// render their own fragment. Builders own the clause order: no matter in
// which sequence the caller populates them, a rendered statement always
// emits WHERE, GROUP BY, ORDER BY, LIMIT/START, FETCH, OMIT, SPLIT,
// TIMEOUT, EXPLAIN. The package never talks to a server; it only produces
// strings for the driver package to send.
package surql

import (
	"fmt"
	"strings"
	"time"
)

// fieldList backs the clauses that carry a comma-joined list of field names.
type fieldList struct {
	fields []string
}

func (l *fieldList) add(fields ...string) {
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		l.fields = append(l.fields, f)
	}
}

func (l *fieldList) isEmpty() bool {
	return len(l.fields) == 0
}

func (l *fieldList) join() string {
	return strings.Join(l.fields, ", ")
}

// Where accumulates filter conditions. The first condition renders bare;
// later ones are joined with AND unless the fragment already starts with
// AND or OR.
type Where struct {
	conds []string
}

// Add appends a condition fragment. Empty fragments are ignored.
func (w *Where) Add(cond string) *Where {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return w
	}
	w.conds = append(w.conds, cond)
	return w
}

// IsEmpty reports whether the clause contributes nothing.
func (w *Where) IsEmpty() bool {
	return len(w.conds) == 0
}

// Render returns the WHERE fragment, or "" when empty.
func (w *Where) Render() string {
	if w.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("WHERE ")
	for i, cond := range w.conds {
		if i == 0 {
			b.WriteString(stripBoolPrefix(cond))
			continue
		}
		b.WriteString(" ")
		if !hasBoolPrefix(cond) {
			b.WriteString("AND ")
		}
		b.WriteString(cond)
	}
	return b.String()
}

func hasBoolPrefix(cond string) bool {
	return keywordPrefix(cond, "AND") || keywordPrefix(cond, "OR")
}

func stripBoolPrefix(cond string) string {
	for _, kw := range []string{"AND", "OR"} {
		if keywordPrefix(cond, kw) {
			return strings.TrimSpace(cond[len(kw):])
		}
	}
	return cond
}

// keywordPrefix reports whether s starts with the keyword followed by a
// word boundary, ignoring case.
func keywordPrefix(s, kw string) bool {
	if len(s) < len(kw) || !strings.EqualFold(s[:len(kw)], kw) {
		return false
	}
	return len(s) == len(kw) || s[len(kw)] == ' ' || s[len(kw)] == '\t'
}

// GroupBy lists grouping fields.
type GroupBy struct {
	fieldList
}

func (g *GroupBy) Add(fields ...string) *GroupBy {
	g.add(fields...)
	return g
}

func (g *GroupBy) IsEmpty() bool { return g.isEmpty() }

func (g *GroupBy) Render() string {
	if g.isEmpty() {
		return ""
	}
	return "GROUP BY " + g.join()
}

// Direction selects the sort direction of an OrderBy clause.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy sorts on a single field. The direction defaults to ascending and
// may be changed after the field is set.
type OrderBy struct {
	field string
	dir   Direction
}

func (o *OrderBy) Set(field string) *OrderBy {
	o.field = strings.TrimSpace(field)
	return o
}

// Dir sets the sort direction.
func (o *OrderBy) Dir(d Direction) *OrderBy {
	o.dir = d
	return o
}

func (o *OrderBy) IsEmpty() bool { return o.field == "" }

func (o *OrderBy) Render() string {
	if o.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("ORDER BY %s %s", o.field, o.dir)
}

// LimitStart caps the result window. The limit always renders once set;
// the start offset renders only when positive.
type LimitStart struct {
	limit    int
	start    int
	hasLimit bool
}

func (l *LimitStart) SetLimit(n int) *LimitStart {
	l.limit = n
	l.hasLimit = true
	return l
}

func (l *LimitStart) SetStart(n int) *LimitStart {
	l.start = n
	return l
}

func (l *LimitStart) IsEmpty() bool { return !l.hasLimit && l.start <= 0 }

func (l *LimitStart) Render() string {
	if l.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 2)
	if l.hasLimit {
		parts = append(parts, fmt.Sprintf("LIMIT %d", l.limit))
	}
	if l.start > 0 {
		parts = append(parts, fmt.Sprintf("START %d", l.start))
	}
	return strings.Join(parts, " ")
}

// Fetch lists record-link fields to resolve inline.
type Fetch struct {
	fieldList
}

func (f *Fetch) Add(fields ...string) *Fetch {
	f.add(fields...)
	return f
}

func (f *Fetch) IsEmpty() bool { return f.isEmpty() }

func (f *Fetch) Render() string {
	if f.isEmpty() {
		return ""
	}
	return "FETCH " + f.join()
}

// Omit lists fields to strip from the result.
type Omit struct {
	fieldList
}

func (o *Omit) Add(fields ...string) *Omit {
	o.add(fields...)
	return o
}

func (o *Omit) IsEmpty() bool { return o.isEmpty() }

func (o *Omit) Render() string {
	if o.isEmpty() {
		return ""
	}
	return "OMIT " + o.join()
}

// Split fans the result out on array-valued fields.
type Split struct {
	fieldList
}

func (s *Split) Add(fields ...string) *Split {
	s.add(fields...)
	return s
}

func (s *Split) IsEmpty() bool { return s.isEmpty() }

func (s *Split) Render() string {
	if s.isEmpty() {
		return ""
	}
	return "SPLIT " + s.join()
}

// Timeout bounds server-side statement execution. The duration renders as
// whole seconds, with a millisecond remainder appended only when nonzero:
// 2s and 2s500ms.
type Timeout struct {
	d   time.Duration
	set bool
}

func (t *Timeout) Set(d time.Duration) *Timeout {
	t.d = d
	t.set = d > 0
	return t
}

func (t *Timeout) IsEmpty() bool { return !t.set }

func (t *Timeout) Render() string {
	if t.IsEmpty() {
		return ""
	}
	secs := t.d / time.Second
	ms := (t.d % time.Second) / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("TIMEOUT %ds", secs)
	}
	return fmt.Sprintf("TIMEOUT %ds%dms", secs, ms)
}

type explainMode int

const (
	explainOff explainMode = iota
	explainOn
	explainFull
)

// Explain asks the server for the statement plan instead of rows. The full
// variant includes per-operation detail.
type Explain struct {
	mode explainMode
}

func (e *Explain) Set() *Explain {
	e.mode = explainOn
	return e
}

func (e *Explain) SetFull() *Explain {
	e.mode = explainFull
	return e
}

func (e *Explain) IsEmpty() bool { return e.mode == explainOff }

func (e *Explain) Render() string {
	switch e.mode {
	case explainOn:
		return "EXPLAIN"
	case explainFull:
		return "EXPLAIN FULL"
	default:
		return ""
	}
}

// renderInOrder joins the non-empty fragments with single spaces, keeping
// the fixed clause order the grammar requires.
func renderInOrder(fragments ...string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
