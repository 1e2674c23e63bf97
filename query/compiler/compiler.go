// Package compiler compiles loose selection queries into parameterised document queries.
package compiler

import (
	"github.com/satishbabariya/prisma-docdb/query/ast"
	"github.com/satishbabariya/prisma-docdb/query/sqlgen"
)

// Query is the loose form of a selection query, as decoded from JSON or YAML.
//
// Recognised keys are where, orderBy (alias sort), limit, skip (alias offset),
// fields and select. Every other key is folded into where as a filter.
type Query map[string]interface{}

// Options tune a single compilation.
type Options struct {
	// Operators override the compiler's registry for this call only.
	Operators sqlgen.Operators
	// ReservedKeys are extra top-level keys that must not be folded into where.
	ReservedKeys []string
	// Fields replaces the query's projection with the listed fields.
	Fields []string
	// Select replaces the projection verbatim. It wins over Fields.
	Select string
}

// Compiler compiles queries against one operator registry.
type Compiler struct {
	generator *sqlgen.Generator
}

// NewCompiler creates a new query compiler. A nil registry uses the default operators.
func NewCompiler(reg *sqlgen.Registry) *Compiler {
	return &Compiler{
		generator: sqlgen.NewGenerator(reg),
	}
}

// Registry returns the registry operators are resolved through.
func (c *Compiler) Registry() *sqlgen.Registry {
	return c.generator.Registry()
}

// Compile normalises q and compiles it for the collection alias.
func (c *Compiler) Compile(alias string, q Query, opts *Options) (*sqlgen.Query, error) {
	var reserved []string
	if opts != nil {
		reserved = opts.ReservedKeys
	}
	sel, err := Normalize(q, reserved)
	if err != nil {
		return nil, err
	}
	return c.CompileSelection(alias, sel, opts)
}

// CompileSelection compiles an already typed selection.
func (c *Compiler) CompileSelection(alias string, sel *ast.Selection, opts *Options) (*sqlgen.Query, error) {
	if sel == nil {
		sel = &ast.Selection{}
	}
	gen := c.generator
	if opts != nil {
		if len(opts.Operators) > 0 {
			gen = sqlgen.NewGenerator(gen.Registry().WithOverrides(opts.Operators))
		}
		if opts.Fields != nil || opts.Select != "" {
			projected := *sel
			if opts.Fields != nil {
				projected.Fields = opts.Fields
			}
			if opts.Select != "" {
				projected.Select = opts.Select
			}
			sel = &projected
		}
	}
	return gen.GenerateSelect(alias, sel)
}

// Compile compiles q with the default operators.
func Compile(alias string, q Query, opts *Options) (*sqlgen.Query, error) {
	return NewCompiler(nil).Compile(alias, q, opts)
}
