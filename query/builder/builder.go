// Package builder provides a fluent query builder API.
package builder

import (
	"github.com/satishbabariya/prisma-docdb/query/ast"
)

// WhereBuilder builds filter groups
type WhereBuilder struct {
	group  *ast.Group
	nextOr bool
}

// NewWhereBuilder creates a new WHERE builder
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{group: ast.NewGroup()}
}

func (w *WhereBuilder) add(n ast.Node) *WhereBuilder {
	join := ast.JoinAnd
	if w.nextOr {
		join = ast.JoinOr
	}
	w.nextOr = false
	w.group.Add(join, n)
	return w
}

// Where adds a condition with an arbitrary operator symbol
func (w *WhereBuilder) Where(field, operator string, value interface{}) *WhereBuilder {
	return w.add(&ast.Predicate{Field: field, Operator: operator, Value: value})
}

// Or joins the next condition or group with OR instead of AND
func (w *WhereBuilder) Or() *WhereBuilder {
	w.nextOr = true
	return w
}

// Equals adds an equality condition
func (w *WhereBuilder) Equals(field string, value interface{}) *WhereBuilder {
	return w.Where(field, "==", value)
}

// NotEquals adds a not-equals condition
func (w *WhereBuilder) NotEquals(field string, value interface{}) *WhereBuilder {
	return w.Where(field, "!=", value)
}

// GreaterThan adds a greater-than condition
func (w *WhereBuilder) GreaterThan(field string, value interface{}) *WhereBuilder {
	return w.Where(field, ">", value)
}

// LessThan adds a less-than condition
func (w *WhereBuilder) LessThan(field string, value interface{}) *WhereBuilder {
	return w.Where(field, "<", value)
}

// GreaterOrEqual adds a greater-or-equal condition
func (w *WhereBuilder) GreaterOrEqual(field string, value interface{}) *WhereBuilder {
	return w.Where(field, ">=", value)
}

// LessOrEqual adds a less-or-equal condition
func (w *WhereBuilder) LessOrEqual(field string, value interface{}) *WhereBuilder {
	return w.Where(field, "<=", value)
}

// In adds a membership condition: the field's value is one of values
func (w *WhereBuilder) In(field string, values []interface{}) *WhereBuilder {
	return w.Where(field, "in", values)
}

// NotIn adds a negated membership condition
func (w *WhereBuilder) NotIn(field string, values []interface{}) *WhereBuilder {
	return w.Where(field, "notIn", values)
}

// Contains adds a condition that the array field holds value
func (w *WhereBuilder) Contains(field string, value interface{}) *WhereBuilder {
	return w.Where(field, "contains", value)
}

// NotContains adds a condition that the array field does not hold value
func (w *WhereBuilder) NotContains(field string, value interface{}) *WhereBuilder {
	return w.Where(field, "notContains", value)
}

// IsEmpty reports whether no condition was added
func (w *WhereBuilder) IsEmpty() bool {
	return w.group.IsEmpty()
}

// Build returns the filter as a root group holding one parenthesised group,
// the same shape an object filter parses into.
func (w *WhereBuilder) Build() *ast.Group {
	root := ast.NewGroup()
	if !w.group.IsEmpty() {
		root.And(w.group)
	}
	return root
}

// SelectionBuilder builds complete selections
type SelectionBuilder struct {
	where   *WhereBuilder
	orderBy []ast.OrderBy
	fields  []string
	sel     string
	limit   int
	skip    int
}

// NewSelectionBuilder creates a new selection builder
func NewSelectionBuilder() *SelectionBuilder {
	return &SelectionBuilder{}
}

// Where sets the filter
func (s *SelectionBuilder) Where(where *WhereBuilder) *SelectionBuilder {
	s.where = where
	return s
}

// Fields sets the projected fields
func (s *SelectionBuilder) Fields(fields ...string) *SelectionBuilder {
	s.fields = fields
	return s
}

// Select replaces the projection verbatim
func (s *SelectionBuilder) Select(projection string) *SelectionBuilder {
	s.sel = projection
	return s
}

// OrderBy adds a sort key
func (s *SelectionBuilder) OrderBy(field string, direction string) *SelectionBuilder {
	s.orderBy = append(s.orderBy, ast.OrderBy{Field: field, Direction: direction})
	return s
}

// OrderByBuilder appends the keys of an ORDER BY builder
func (s *SelectionBuilder) OrderByBuilder(o *OrderByBuilder) *SelectionBuilder {
	s.orderBy = append(s.orderBy, o.Build()...)
	return s
}

// Limit sets the maximum number of results
func (s *SelectionBuilder) Limit(limit int) *SelectionBuilder {
	s.limit = limit
	return s
}

// Skip sets the number of results to skip. It is kept on the selection but not
// emitted into compiled queries.
func (s *SelectionBuilder) Skip(skip int) *SelectionBuilder {
	s.skip = skip
	return s
}

// Build returns the typed selection
func (s *SelectionBuilder) Build() *ast.Selection {
	sel := &ast.Selection{
		OrderBy: append([]ast.OrderBy(nil), s.orderBy...),
		Limit:   s.limit,
		Skip:    s.skip,
		Fields:  append([]string(nil), s.fields...),
		Select:  s.sel,
	}
	if s.where != nil {
		sel.Where = s.where.Build()
	}
	return sel
}

// Query returns the selection in loose form, for APIs that take one.
func (s *SelectionBuilder) Query() map[string]interface{} {
	q := map[string]interface{}{}
	if s.where != nil && !s.where.IsEmpty() {
		q["where"] = s.where.Build()
	}
	if len(s.orderBy) > 0 {
		q["orderBy"] = append([]ast.OrderBy(nil), s.orderBy...)
	}
	if s.limit > 0 {
		q["limit"] = s.limit
	}
	if s.skip > 0 {
		q["skip"] = s.skip
	}
	if len(s.fields) > 0 {
		q["fields"] = append([]string(nil), s.fields...)
	}
	if s.sel != "" {
		q["select"] = s.sel
	}
	return q
}

// OrderByBuilder builds ORDER BY clauses
type OrderByBuilder struct {
	orderBy []ast.OrderBy
}

// NewOrderByBuilder creates a new ORDER BY builder
func NewOrderByBuilder() *OrderByBuilder {
	return &OrderByBuilder{
		orderBy: []ast.OrderBy{},
	}
}

// Asc adds an ascending ORDER BY clause
func (o *OrderByBuilder) Asc(field string) *OrderByBuilder {
	o.orderBy = append(o.orderBy, ast.OrderBy{
		Field:     field,
		Direction: "ASC",
	})
	return o
}

// Desc adds a descending ORDER BY clause
func (o *OrderByBuilder) Desc(field string) *OrderByBuilder {
	o.orderBy = append(o.orderBy, ast.OrderBy{
		Field:     field,
		Direction: "DESC",
	})
	return o
}

// Build returns the ORDER BY clauses
func (o *OrderByBuilder) Build() []ast.OrderBy {
	return o.orderBy
}
