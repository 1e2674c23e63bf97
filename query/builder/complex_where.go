package builder

import (
	"github.com/satishbabariya/prisma-docdb/query/ast"
)

// AND adds a parenthesised group in which the sub-builders are joined with AND
func (w *WhereBuilder) AND(builders ...*WhereBuilder) *WhereBuilder {
	return w.combine(ast.JoinAnd, builders)
}

// OR adds a parenthesised group in which the sub-builders are joined with OR
func (w *WhereBuilder) OR(builders ...*WhereBuilder) *WhereBuilder {
	return w.combine(ast.JoinOr, builders)
}

func (w *WhereBuilder) combine(join ast.Join, builders []*WhereBuilder) *WhereBuilder {
	group := ast.NewGroup()
	for _, b := range builders {
		if b != nil && !b.IsEmpty() {
			group.Add(join, b.group)
		}
	}
	if group.IsEmpty() {
		w.nextOr = false
		return w
	}
	return w.add(group)
}

// NewSubWhereBuilder creates a new independent WHERE builder for use in AND/OR
func NewSubWhereBuilder() *WhereBuilder {
	return NewWhereBuilder()
}
