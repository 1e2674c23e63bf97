package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/prisma-docdb/runtime"
)

const (
	// OrMarker prefixed to an operator symbol joins that predicate with OR.
	OrMarker = "|"
	// OrConnector between two array elements joins the right one with OR.
	OrConnector = "or"
	// AndConnector is accepted between array elements and has no effect.
	AndConnector = "and"
	// DefaultOperator is used when a field maps to a literal.
	DefaultOperator = "=="
)

// ParseWhere converts the loose filter forms into a Group.
//
// The returned root only ever holds groups: an object form becomes a root with one
// child group, an array form a root with one child group per element. Object keys and
// operator symbols of plain maps are visited in sorted order; use Fields to keep
// insertion order.
func ParseWhere(v interface{}) (*Group, error) {
	switch where := v.(type) {
	case nil:
		return NewGroup(), nil
	case *Group:
		if where == nil {
			return NewGroup(), nil
		}
		return where, nil
	case Group:
		return &where, nil
	case []interface{}:
		return parseArray(where)
	case []map[string]interface{}:
		list := make([]interface{}, len(where))
		for i := range where {
			list[i] = where[i]
		}
		return parseArray(list)
	case map[string]interface{}, Fields:
		g, err := parseObject(where)
		if err != nil {
			return nil, err
		}
		root := NewGroup()
		if len(g.Children) > 0 {
			root.And(g)
		}
		return root, nil
	default:
		return nil, runtime.NewValidationError("where", "unsupported filter type %T", v)
	}
}

func parseArray(list []interface{}) (*Group, error) {
	g := NewGroup()
	nextOr := false
	for i, elem := range list {
		if token, ok := elem.(string); ok {
			switch {
			case strings.EqualFold(token, OrConnector):
				nextOr = true
			case strings.EqualFold(token, AndConnector):
			default:
				return nil, runtime.NewValidationError("where", "unknown connector %q at position %d", token, i)
			}
			continue
		}

		var (
			child *Group
			err   error
		)
		switch sub := elem.(type) {
		case map[string]interface{}, Fields:
			child, err = parseObject(sub)
		case []interface{}:
			child, err = parseArray(sub)
		case *Group:
			child = sub
		case Group:
			child = &sub
		default:
			return nil, runtime.NewValidationError("where", "unsupported element %T at position %d", elem, i)
		}
		if err != nil {
			return nil, err
		}

		join := JoinAnd
		if nextOr {
			join = JoinOr
		}
		nextOr = false
		g.Add(join, child)
	}
	return g, nil
}

func parseObject(v interface{}) (*Group, error) {
	g := NewGroup()
	for _, f := range entries(v) {
		switch ops := f.Value.(type) {
		case map[string]interface{}, Fields:
			for _, op := range entries(ops) {
				symbol, join := splitMarker(op.Name)
				if symbol == "" {
					return nil, runtime.NewValidationError(f.Name, "empty operator")
				}
				g.Add(join, &Predicate{Field: f.Name, Operator: symbol, Value: op.Value})
			}
		default:
			g.And(&Predicate{Field: f.Name, Operator: DefaultOperator, Value: f.Value})
		}
	}
	return g, nil
}

func splitMarker(symbol string) (string, Join) {
	if strings.HasPrefix(symbol, OrMarker) {
		return strings.TrimPrefix(symbol, OrMarker), JoinOr
	}
	return symbol, JoinAnd
}

// entries returns the entries of a map (sorted by key) or of Fields (as given).
func entries(v interface{}) Fields {
	switch m := v.(type) {
	case Fields:
		return m
	case map[string]interface{}:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Fields, len(keys))
		for i, k := range keys {
			out[i] = Field{Name: k, Value: m[k]}
		}
		return out
	}
	return nil
}

// ParseOrderBy converts the loose sort forms into sort keys.
//
// Accepted forms: "name", "name DESC", a list of such strings, a list of
// [field, direction] pairs, OrderBy values.
func ParseOrderBy(v interface{}) ([]OrderBy, error) {
	switch order := v.(type) {
	case nil:
		return nil, nil
	case string:
		o, ok := parseOrderString(order)
		if !ok {
			return nil, nil
		}
		return []OrderBy{o}, nil
	case OrderBy:
		return []OrderBy{order}, nil
	case []OrderBy:
		return order, nil
	case []string:
		list := make([]interface{}, len(order))
		for i := range order {
			list[i] = order[i]
		}
		return ParseOrderBy(list)
	case []interface{}:
		var out []OrderBy
		for i, elem := range order {
			o, ok, err := parseOrderElem(elem)
			if err != nil {
				return nil, fmt.Errorf("orderBy[%d]: %w", i, err)
			}
			if ok {
				out = append(out, o)
			}
		}
		return out, nil
	default:
		return nil, runtime.NewValidationError("orderBy", "unsupported type %T", v)
	}
}

func parseOrderElem(elem interface{}) (OrderBy, bool, error) {
	switch e := elem.(type) {
	case string:
		o, ok := parseOrderString(e)
		return o, ok, nil
	case OrderBy:
		return e, true, nil
	case []string:
		pair := make([]interface{}, len(e))
		for i := range e {
			pair[i] = e[i]
		}
		return parseOrderElem(pair)
	case []interface{}:
		if len(e) == 0 || len(e) > 2 {
			return OrderBy{}, false, runtime.NewValidationError("orderBy", "expected [field, direction], got %d elements", len(e))
		}
		field, ok := e[0].(string)
		if !ok || field == "" {
			return OrderBy{}, false, runtime.NewValidationError("orderBy", "field must be a non-empty string")
		}
		o := OrderBy{Field: field}
		if len(e) == 2 && e[1] != nil {
			dir, ok := e[1].(string)
			if !ok {
				return OrderBy{}, false, runtime.NewValidationError("orderBy", "direction must be a string, got %T", e[1])
			}
			o.Direction = dir
		}
		return o, true, nil
	default:
		return OrderBy{}, false, runtime.NewValidationError("orderBy", "unsupported element %T", elem)
	}
}

func parseOrderString(s string) (OrderBy, bool) {
	parts := strings.Fields(s)
	switch len(parts) {
	case 0:
		return OrderBy{}, false
	case 1:
		return OrderBy{Field: parts[0]}, true
	default:
		return OrderBy{Field: parts[0], Direction: parts[1]}, true
	}
}
