package compiler

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/satishbabariya/prisma-docdb/query/ast"
	"github.com/satishbabariya/prisma-docdb/runtime"
)

// Query keys.
const (
	KeyWhere   = "where"
	KeyOrderBy = "orderBy"
	KeySort    = "sort"
	KeyLimit   = "limit"
	KeySkip    = "skip"
	KeyOffset  = "offset"
	KeyFields  = "fields"
	KeySelect  = "select"
)

// ReservedKeys are never folded into where.
var ReservedKeys = []string{KeyWhere, KeyOrderBy, KeySort, KeyLimit, KeySkip, KeyOffset, KeyFields, KeySelect}

// Normalize resolves key aliases, folds non-reserved keys into where and converts
// the result into a typed selection. extraReserved extends ReservedKeys.
func Normalize(q Query, extraReserved []string) (*ast.Selection, error) {
	q = withAliases(q)

	where, err := foldWhere(q, extraReserved)
	if err != nil {
		return nil, err
	}

	sel := &ast.Selection{}
	if sel.Where, err = ast.ParseWhere(where); err != nil {
		return nil, err
	}
	if sel.OrderBy, err = ast.ParseOrderBy(q[KeyOrderBy]); err != nil {
		return nil, err
	}
	if sel.Limit, err = toInt(KeyLimit, q[KeyLimit]); err != nil {
		return nil, err
	}
	if sel.Skip, err = toInt(KeySkip, q[KeySkip]); err != nil {
		return nil, err
	}
	if sel.Skip < 0 {
		return nil, runtime.NewValidationError(KeySkip, "must not be negative, got %d", sel.Skip)
	}
	if sel.Fields, err = parseFields(q[KeyFields]); err != nil {
		return nil, err
	}
	if s, ok := q[KeySelect]; ok && s != nil {
		str, ok := s.(string)
		if !ok {
			return nil, runtime.NewValidationError(KeySelect, "must be a string, got %T", s)
		}
		sel.Select = strings.TrimSpace(str)
	}
	return sel, nil
}

// withAliases returns a shallow copy of q with sort and offset renamed.
func withAliases(q Query) Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	if _, ok := out[KeyOrderBy]; !ok {
		if v, ok := out[KeySort]; ok {
			out[KeyOrderBy] = v
		}
	}
	if _, ok := out[KeySkip]; !ok {
		if v, ok := out[KeyOffset]; ok {
			out[KeySkip] = v
		}
	}
	return out
}

func isReserved(key string, extra []string) bool {
	for _, k := range ReservedKeys {
		if k == key {
			return true
		}
	}
	for _, k := range extra {
		if k == key {
			return true
		}
	}
	return false
}

// foldWhere merges the non-reserved top-level keys into the where filter. An object
// where gains the keys directly, an array where gains one more AND-joined element.
func foldWhere(q Query, extraReserved []string) (interface{}, error) {
	folded := map[string]interface{}{}
	for k, v := range q {
		if !isReserved(k, extraReserved) {
			folded[k] = v
		}
	}

	where := q[KeyWhere]
	if len(folded) == 0 {
		return where, nil
	}

	switch w := where.(type) {
	case nil:
		return folded, nil
	case map[string]interface{}:
		merged := make(map[string]interface{}, len(w)+len(folded))
		for k, v := range w {
			merged[k] = v
		}
		for k, v := range folded {
			merged[k] = v
		}
		return merged, nil
	case ast.Fields:
		keys := make([]string, 0, len(folded))
		for k := range folded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		merged := append(ast.Fields{}, w...)
		for _, k := range keys {
			merged = append(merged, ast.Field{Name: k, Value: folded[k]})
		}
		return merged, nil
	case []interface{}:
		return append(append([]interface{}{}, w...), folded), nil
	case []map[string]interface{}:
		out := make([]interface{}, 0, len(w)+1)
		for _, m := range w {
			out = append(out, m)
		}
		return append(out, folded), nil
	case *ast.Group, ast.Group:
		root, err := ast.ParseWhere(w)
		if err != nil {
			return nil, err
		}
		extra, err := ast.ParseWhere([]interface{}{folded})
		if err != nil {
			return nil, err
		}
		out := ast.NewGroup()
		out.Children = append(out.Children, root.Children...)
		out.Children = append(out.Children, extra.Children...)
		return out, nil
	default:
		return nil, runtime.NewValidationError(KeyWhere, "unsupported filter type %T", where)
	}
}

// toInt accepts any Go integer or float type, json.Number and numeric strings.
// Absent values are zero.
func toInt(field string, v interface{}) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, runtime.NewValidationError(field, "out of range: %d", n)
		}
		return int(n), nil
	case uint:
		return uintToInt(field, uint64(n))
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return uintToInt(field, uint64(n))
	case uint64:
		return uintToInt(field, n)
	case float32:
		return floatToInt(field, float64(n))
	case float64:
		return floatToInt(field, n)
	case json.Number:
		return toInt(field, string(n))
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, nil
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, runtime.NewValidationError(field, "not a number: %q", n)
		}
		return floatToInt(field, f)
	default:
		return 0, runtime.NewValidationError(field, "must be a number, got %T", v)
	}
}

func uintToInt(field string, n uint64) (int, error) {
	if n > math.MaxInt {
		return 0, runtime.NewValidationError(field, "out of range: %d", n)
	}
	return int(n), nil
}

func floatToInt(field string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, runtime.NewValidationError(field, "must be a whole number, got %v", f)
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, runtime.NewValidationError(field, "out of range: %v", f)
	}
	return int(f), nil
}

// parseFields accepts a list of names, a comma separated string, or a map of
// name to a boolean (true includes the field).
func parseFields(v interface{}) ([]string, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case string:
		var out []string
		for _, name := range strings.Split(f, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		return out, nil
	case []string:
		return append([]string(nil), f...), nil
	case []interface{}:
		out := make([]string, 0, len(f))
		for i, elem := range f {
			name, ok := elem.(string)
			if !ok || name == "" {
				return nil, runtime.NewValidationError(KeyFields, "element %d must be a non-empty string", i)
			}
			out = append(out, name)
		}
		return out, nil
	case map[string]interface{}:
		var out []string
		for name, include := range f {
			b, ok := include.(bool)
			if !ok {
				return nil, runtime.NewValidationError(KeyFields, "%s: expected a boolean, got %T", name, include)
			}
			if b {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		return out, nil
	case map[string]bool:
		var out []string
		for name, include := range f {
			if include {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		return out, nil
	default:
		return nil, runtime.NewValidationError(KeyFields, "unsupported type %T", v)
	}
}
