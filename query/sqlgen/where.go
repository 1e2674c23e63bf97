// Package sqlgen generates parameterised document queries.
package sqlgen

import (
	"strings"

	"github.com/satishbabariya/prisma-docdb/query/ast"
)

// BuildWhere renders a filter group into a boolean expression.
//
// A predicate child renders bare, a group child renders in parentheses; children are
// joined left to right with AND or OR according to their join. Empty groups are
// skipped. The first operator that cannot be resolved aborts the whole build.
func BuildWhere(g *ast.Group, alias string, reg *Registry, params *Params) (string, error) {
	if g == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, child := range g.Children {
		var expr string
		switch node := child.Node.(type) {
		case *ast.Predicate:
			fn, err := reg.Lookup(node.Operator)
			if err != nil {
				return "", err
			}
			expr = fn(node.Field, node.Value, params, alias)
		case *ast.Group:
			inner, err := BuildWhere(node, alias, reg, params)
			if err != nil {
				return "", err
			}
			if inner == "" {
				continue
			}
			expr = "(" + inner + ")"
		default:
			continue
		}

		if sb.Len() > 0 {
			if child.Join == ast.JoinOr {
				sb.WriteString(" OR ")
			} else {
				sb.WriteString(" AND ")
			}
		}
		sb.WriteString(expr)
	}
	return sb.String(), nil
}
