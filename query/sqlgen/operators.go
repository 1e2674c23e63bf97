// Package sqlgen provides the operator registry.
package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/prisma-docdb/runtime"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// OperatorFunc renders one predicate. It binds its operand(s) into params and
// returns the boolean expression.
type OperatorFunc func(field string, value interface{}, params *Params, alias string) string

// Operators maps operator symbols to their renderers.
type Operators map[string]OperatorFunc

var defaultOperators = Operators{
	"=":           compare("="),
	"==":          compare("="),
	"===":         compare("="),
	"!=":          compare("!="),
	"!==":         compare("!="),
	">":           compare(">"),
	">=":          compare(">="),
	"<":           compare("<"),
	"<=":          compare("<="),
	"in":          inArray(false),
	"notIn":       inArray(true),
	"contains":    arrayContains(false),
	"notContains": arrayContains(true),
}

// DefaultOperators returns a copy of the built-in operators.
func DefaultOperators() Operators {
	return defaultOperators.clone()
}

func (o Operators) clone() Operators {
	out := make(Operators, len(o))
	for symbol, fn := range o {
		out[symbol] = fn
	}
	return out
}

// compare renders alias.field <op> @param.
func compare(op string) OperatorFunc {
	return func(field string, value interface{}, params *Params, alias string) string {
		return fmt.Sprintf("%s %s %s", FieldRef(alias, field), op, params.Bind(field, value))
	}
}

// inArray renders a membership test of the field in the bound array.
func inArray(negate bool) OperatorFunc {
	return func(field string, value interface{}, params *Params, alias string) string {
		expr := fmt.Sprintf("ARRAY_CONTAINS(%s, %s)", params.Bind(field, value), FieldRef(alias, field))
		if negate {
			return "NOT " + expr
		}
		return expr
	}
}

// arrayContains renders a membership test of the bound value in the array field.
func arrayContains(negate bool) OperatorFunc {
	return func(field string, value interface{}, params *Params, alias string) string {
		expr := fmt.Sprintf("ARRAY_CONTAINS(%s, %s)", FieldRef(alias, field), params.Bind(field, value))
		if negate {
			return "NOT " + expr
		}
		return expr
	}
}

// FieldRef renders a document path below alias. Dotted segments that are plain
// identifiers use property access, anything else (keywords included) uses a
// quoted index.
func FieldRef(alias, field string) string {
	var b strings.Builder
	b.WriteString(alias)
	for _, seg := range strings.Split(field, ".") {
		if isIdentifier(seg) && !types.IsReserved(seg) {
			b.WriteByte('.')
			b.WriteString(seg)
		} else {
			fmt.Fprintf(&b, "[%q]", seg)
		}
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Registry resolves operator symbols through call-level overrides, adapter-level
// overrides and the built-in defaults, in that order.
type Registry struct {
	defaults Operators
	adapter  Operators
	call     Operators
}

// NewRegistry creates a registry with adapter-level overrides.
func NewRegistry(overrides Operators) *Registry {
	return &Registry{
		defaults: DefaultOperators(),
		adapter:  overrides.clone(),
	}
}

// WithOverrides returns a registry that consults overrides before r.
// r itself is not modified.
func (r *Registry) WithOverrides(overrides Operators) *Registry {
	if len(overrides) == 0 {
		return r
	}
	return &Registry{
		defaults: r.defaults,
		adapter:  r.adapter,
		call:     overrides.clone(),
	}
}

// Lookup resolves symbol.
func (r *Registry) Lookup(symbol string) (OperatorFunc, error) {
	for _, tier := range []Operators{r.call, r.adapter, r.defaults} {
		if fn, ok := tier[symbol]; ok && fn != nil {
			return fn, nil
		}
	}
	return nil, &runtime.UnsupportedOperatorError{Operator: symbol}
}

// Symbols returns every resolvable symbol, sorted.
func (r *Registry) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tier := range []Operators{r.call, r.adapter, r.defaults} {
		for symbol, fn := range tier {
			if fn != nil && !seen[symbol] {
				seen[symbol] = true
				out = append(out, symbol)
			}
		}
	}
	sort.Strings(out)
	return out
}
