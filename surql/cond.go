package surql

import (
	"fmt"
	"strings"
)

// Cond is a filter expression that renders a SurrealQL condition fragment.
// Conditions compose via And, Or, and Not before being handed to a
// builder's Where clause.
type Cond interface {
	// Expr renders the condition as SurrealQL text.
	Expr() string
}

// --- Comparison conditions ---

// CompareCond compares a field to a value using a SurrealQL operator.
type CompareCond struct {
	Field string
	Op    string
	Value any
}

func (c *CompareCond) Expr() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, FormatValue(c.Value))
}

// Eq creates an equality condition: field = value.
func Eq(field string, value any) Cond {
	return &CompareCond{Field: field, Op: "=", Value: value}
}

// Exact creates a strict equality condition: field == value.
func Exact(field string, value any) Cond {
	return &CompareCond{Field: field, Op: "==", Value: value}
}

// Neq creates a not-equal condition: field != value.
func Neq(field string, value any) Cond {
	return &CompareCond{Field: field, Op: "!=", Value: value}
}

// Gt creates a greater-than condition: field > value.
func Gt(field string, value any) Cond {
	return &CompareCond{Field: field, Op: ">", Value: value}
}

// Gte creates a greater-or-equal condition: field >= value.
func Gte(field string, value any) Cond {
	return &CompareCond{Field: field, Op: ">=", Value: value}
}

// Lt creates a less-than condition: field < value.
func Lt(field string, value any) Cond {
	return &CompareCond{Field: field, Op: "<", Value: value}
}

// Lte creates a less-or-equal condition: field <= value.
func Lte(field string, value any) Cond {
	return &CompareCond{Field: field, Op: "<=", Value: value}
}

// Contains creates a collection membership condition: field CONTAINS value.
func Contains(field string, value any) Cond {
	return &CompareCond{Field: field, Op: "CONTAINS", Value: value}
}

// Matches creates a fuzzy match condition: field ~ pattern.
func Matches(field string, pattern string) Cond {
	return &CompareCond{Field: field, Op: "~", Value: pattern}
}

// --- Set membership ---

// InCond checks whether a field value is inside a set of values.
type InCond struct {
	Field   string
	Values  []any
	Negated bool
}

func (c *InCond) Expr() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = FormatValue(v)
	}
	op := "IN"
	if c.Negated {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s [%s]", c.Field, op, strings.Join(parts, ", "))
}

// In creates a condition that checks if a field value is in a set.
func In(field string, values ...any) Cond {
	return &InCond{Field: field, Values: values}
}

// NotIn creates a condition that checks if a field value is NOT in a set.
func NotIn(field string, values ...any) Cond {
	return &InCond{Field: field, Values: values, Negated: true}
}

// --- Range ---

// RangeCond checks whether a field value falls between min and max
// (inclusive).
type RangeCond struct {
	Field string
	Min   any
	Max   any
}

func (c *RangeCond) Expr() string {
	return fmt.Sprintf("(%s >= %s AND %s <= %s)",
		c.Field, FormatValue(c.Min), c.Field, FormatValue(c.Max))
}

// Range creates a condition that checks if a field value is between min
// and max (inclusive).
func Range(field string, min, max any) Cond {
	return &RangeCond{Field: field, Min: min, Max: max}
}

// --- Existence ---

// NoneCond checks whether a field is NONE (absent) or not.
type NoneCond struct {
	Field   string
	Negated bool
}

func (c *NoneCond) Expr() string {
	if c.Negated {
		return c.Field + " IS NOT NONE"
	}
	return c.Field + " IS NONE"
}

// IsNone creates a condition matching records where the field is absent.
func IsNone(field string) Cond {
	return &NoneCond{Field: field}
}

// IsNotNone creates a condition matching records where the field is set.
func IsNotNone(field string) Cond {
	return &NoneCond{Field: field, Negated: true}
}

// --- Boolean combinators ---

// AndCond combines conditions with AND (conjunction).
type AndCond struct {
	Conds []Cond
}

func (c *AndCond) Expr() string {
	return joinConds(c.Conds, " AND ")
}

// And combines conditions with logical AND, flattening nested ANDs.
func And(conds ...Cond) Cond {
	var flat []Cond
	for _, c := range conds {
		if a, ok := c.(*AndCond); ok {
			flat = append(flat, a.Conds...)
		} else {
			flat = append(flat, c)
		}
	}
	return &AndCond{Conds: flat}
}

// OrCond combines alternatives with OR (disjunction).
type OrCond struct {
	Conds []Cond
}

func (c *OrCond) Expr() string {
	return joinConds(c.Conds, " OR ")
}

// Or combines conditions with logical OR.
func Or(conds ...Cond) Cond {
	return &OrCond{Conds: conds}
}

// NotCond negates a condition.
type NotCond struct {
	Inner Cond
}

func (c *NotCond) Expr() string {
	return "!(" + c.Inner.Expr() + ")"
}

// Not negates a condition.
func Not(cond Cond) Cond {
	return &NotCond{Inner: cond}
}

// RawCond passes SurrealQL text through untouched.
type RawCond string

func (c RawCond) Expr() string { return string(c) }

// Raw creates a condition from a literal SurrealQL fragment.
func Raw(expr string) Cond { return RawCond(expr) }

func joinConds(conds []Cond, sep string) string {
	if len(conds) == 0 {
		return ""
	}
	if len(conds) == 1 {
		return conds[0].Expr()
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.Expr()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
