// Package sqlgen provides SELECT assembly.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-docdb/query/ast"
)

// Query is a compiled query: the text plus its bind parameters.
type Query struct {
	Text       string      `json:"query" yaml:"query"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
}

// Generator assembles SELECT statements for one collection alias.
type Generator struct {
	registry *Registry
}

// NewGenerator creates a generator that resolves operators through reg.
func NewGenerator(reg *Registry) *Generator {
	if reg == nil {
		reg = NewRegistry(nil)
	}
	return &Generator{registry: reg}
}

// Registry returns the generator's operator registry.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// GenerateSelect builds
//
//	SELECT [TOP n] <projection> FROM <alias>[ WHERE <expr>][ ORDER BY <keys>]
//
// Skip is never emitted.
func (g *Generator) GenerateSelect(alias string, sel *ast.Selection) (*Query, error) {
	if sel == nil {
		sel = &ast.Selection{}
	}
	params := NewParams()

	var parts []string

	// SELECT [TOP n] projection
	head := "SELECT"
	if sel.Limit > 0 {
		head += fmt.Sprintf(" TOP %d", sel.Limit)
	}
	parts = append(parts, head+" "+Projection(alias, sel.Fields, sel.Select))

	// FROM alias
	parts = append(parts, "FROM "+alias)

	// WHERE clause
	if !sel.Where.IsEmpty() {
		whereSQL, err := BuildWhere(sel.Where, alias, g.registry, params)
		if err != nil {
			return nil, err
		}
		if whereSQL != "" {
			parts = append(parts, "WHERE "+whereSQL)
		}
	}

	// ORDER BY
	if order := OrderByClause(alias, sel.OrderBy); order != "" {
		parts = append(parts, "ORDER BY "+order)
	}

	return &Query{
		Text:       strings.Join(parts, " "),
		Parameters: params.List(),
	}, nil
}

// Projection renders the SELECT list. An explicit selection wins over fields;
// with neither, every document is selected whole.
func Projection(alias string, fields []string, selection string) string {
	if selection != "" {
		return selection
	}
	if len(fields) == 0 {
		return "*"
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = FieldRef(alias, f)
	}
	return strings.Join(cols, ", ")
}

// OrderByClause renders sort keys without the ORDER BY keyword.
func OrderByClause(alias string, orderBy []ast.OrderBy) string {
	if len(orderBy) == 0 {
		return ""
	}
	keys := make([]string, 0, len(orderBy))
	for _, ob := range orderBy {
		if ob.Field == "" {
			continue
		}
		key := FieldRef(alias, ob.Field)
		if ob.Desc() {
			key += " DESC"
		}
		keys = append(keys, key)
	}
	return strings.Join(keys, ", ")
}
