package docsql

import (
	"encoding/json"
	"reflect"
	"strings"
)

// undefinedValue marks a missing property. It differs from null: comparisons
// with it are neither true nor false.
type undefinedValue struct{}

var undefined = undefinedValue{}

func isUndefined(v interface{}) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// Normalize converts a Go value into the JSON value model the evaluator works
// on: numbers become float64, slices []interface{}, maps map[string]interface{}.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, float64, undefinedValue:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = Normalize(x[i])
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return v
}

// typeRank orders values of different types: undefined < null < bool < number
// < string < array < object.
func typeRank(v interface{}) int {
	switch v.(type) {
	case undefinedValue:
		return 0
	case nil:
		return 1
	case bool:
		return 2
	case float64:
		return 3
	case string:
		return 4
	case []interface{}:
		return 5
	default:
		return 6
	}
}

// equal compares two normalised values. It returns undefined if either side is
// undefined.
func equal(a, b interface{}) interface{} {
	if isUndefined(a) || isUndefined(b) {
		return undefined
	}
	if typeRank(a) != typeRank(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// order compares two values of the same scalar type. ok is false when they
// cannot be ordered.
func order(a, b interface{}) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// sortCompare orders any two values, first by type rank and then by value.
func sortCompare(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	c, _ := order(a, b)
	return c
}

func truthy(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}
