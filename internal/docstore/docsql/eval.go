package docsql

import (
	"fmt"
	"strings"
)

// env is the evaluation environment of one document.
type env struct {
	alias  string
	doc    map[string]interface{}
	params map[string]interface{}
}

func (e *env) expr(x *Expr) (interface{}, error) {
	if len(x.Or) == 1 {
		return e.and(x.Or[0])
	}
	var result interface{} = false
	for _, and := range x.Or {
		v, err := e.and(and)
		if err != nil {
			return nil, err
		}
		if b, ok := v.(bool); ok {
			if b {
				return true, nil
			}
			continue
		}
		result = undefined
	}
	return result, nil
}

func (e *env) and(x *AndExpr) (interface{}, error) {
	if len(x.And) == 1 {
		return e.not(x.And[0])
	}
	var result interface{} = true
	for _, n := range x.And {
		v, err := e.not(n)
		if err != nil {
			return nil, err
		}
		if b, ok := v.(bool); ok {
			if !b {
				return false, nil
			}
			continue
		}
		result = undefined
	}
	return result, nil
}

func (e *env) not(x *NotExpr) (interface{}, error) {
	if x.Negated != nil {
		v, err := e.not(x.Negated)
		if err != nil {
			return nil, err
		}
		if b, ok := v.(bool); ok {
			return !b, nil
		}
		return undefined, nil
	}
	return e.comparison(x.Cmp)
}

func (e *env) comparison(x *Comparison) (interface{}, error) {
	left, err := e.operand(x.Left)
	if err != nil {
		return nil, err
	}
	if x.Op == "" {
		return left, nil
	}
	right, err := e.operand(x.Right)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case "=":
		return equal(left, right), nil
	case "!=", "<>":
		eq := equal(left, right)
		if b, ok := eq.(bool); ok {
			return !b, nil
		}
		return eq, nil
	}

	c, ok := order(left, right)
	if !ok {
		return undefined, nil
	}
	switch x.Op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return nil, fmt.Errorf("unknown operator %q", x.Op)
}

func (e *env) operand(x *Operand) (interface{}, error) {
	switch {
	case x.Sub != nil:
		return e.expr(x.Sub)
	case x.Call != nil:
		return e.call(x.Call)
	case x.Param != nil:
		v, ok := e.params[*x.Param]
		if !ok {
			return nil, fmt.Errorf("parameter %s is not bound", *x.Param)
		}
		return v, nil
	case x.Number != nil:
		return *x.Number, nil
	case x.String != nil:
		return *x.String, nil
	case x.True:
		return true, nil
	case x.False:
		return false, nil
	case x.Null:
		return nil, nil
	case x.Path != nil:
		return e.path(x.Path)
	}
	return nil, fmt.Errorf("empty operand")
}

func (e *env) path(p *Path) (interface{}, error) {
	if p.Root != e.alias {
		return nil, fmt.Errorf("unknown identifier %q, expected %q", p.Root, e.alias)
	}
	var cur interface{} = e.doc
	for _, seg := range p.Segments {
		switch {
		case seg.Name != nil || seg.Key != nil:
			name := ""
			if seg.Name != nil {
				name = *seg.Name
			} else {
				name = *seg.Key
			}
			m, ok := cur.(map[string]interface{})
			if !ok {
				return undefined, nil
			}
			if cur, ok = m[name]; !ok {
				return undefined, nil
			}
		case seg.Index != nil:
			arr, ok := cur.([]interface{})
			if !ok || *seg.Index < 0 || *seg.Index >= len(arr) {
				return undefined, nil
			}
			cur = arr[*seg.Index]
		}
	}
	return cur, nil
}

func (e *env) call(c *Call) (interface{}, error) {
	args := make([]interface{}, len(c.Args))
	for i, a := range c.Args {
		v, err := e.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := functions[strings.ToUpper(c.Name)]
	if !ok {
		return nil, fmt.Errorf("unknown function %s", c.Name)
	}
	if len(args) < fn.min || (fn.max >= 0 && len(args) > fn.max) {
		return nil, fmt.Errorf("%s: wrong number of arguments (%d)", strings.ToUpper(c.Name), len(args))
	}
	return fn.eval(args), nil
}

type function struct {
	min, max int
	eval     func(args []interface{}) interface{}
}

var functions = map[string]function{
	"ARRAY_CONTAINS": {2, 3, arrayContains},
	"ARRAY_LENGTH": {1, 1, func(args []interface{}) interface{} {
		arr, ok := args[0].([]interface{})
		if !ok {
			return undefined
		}
		return float64(len(arr))
	}},
	"IS_DEFINED": {1, 1, func(args []interface{}) interface{} {
		return !isUndefined(args[0])
	}},
	"IS_NULL": {1, 1, func(args []interface{}) interface{} {
		return args[0] == nil
	}},
	"IS_NUMBER": {1, 1, func(args []interface{}) interface{} {
		_, ok := args[0].(float64)
		return ok
	}},
	"IS_STRING": {1, 1, func(args []interface{}) interface{} {
		_, ok := args[0].(string)
		return ok
	}},
	"LOWER":      {1, 1, stringFunc(strings.ToLower)},
	"UPPER":      {1, 1, stringFunc(strings.ToUpper)},
	"STARTSWITH": {2, 2, stringPredicate(strings.HasPrefix)},
	"ENDSWITH":   {2, 2, stringPredicate(strings.HasSuffix)},
	"CONTAINS":   {2, 2, stringPredicate(strings.Contains)},
	"LENGTH": {1, 1, func(args []interface{}) interface{} {
		s, ok := args[0].(string)
		if !ok {
			return undefined
		}
		return float64(len([]rune(s)))
	}},
}

// arrayContains implements ARRAY_CONTAINS(array, value[, partial]). With partial
// true an object element matches when it contains every property of value.
func arrayContains(args []interface{}) interface{} {
	arr, ok := args[0].([]interface{})
	if !ok {
		return undefined
	}
	partial := len(args) == 3 && truthy(args[2])
	for _, elem := range arr {
		if truthy(equal(elem, args[1])) {
			return true
		}
		if partial && partialMatch(elem, args[1]) {
			return true
		}
	}
	return false
}

func partialMatch(elem, want interface{}) bool {
	em, ok := elem.(map[string]interface{})
	if !ok {
		return false
	}
	wm, ok := want.(map[string]interface{})
	if !ok {
		return false
	}
	for k, v := range wm {
		if !truthy(equal(em[k], v)) {
			return false
		}
	}
	return true
}

func stringFunc(fn func(string) string) func([]interface{}) interface{} {
	return func(args []interface{}) interface{} {
		s, ok := args[0].(string)
		if !ok {
			return undefined
		}
		return fn(s)
	}
}

func stringPredicate(fn func(s, sub string) bool) func([]interface{}) interface{} {
	return func(args []interface{}) interface{} {
		s, ok := args[0].(string)
		if !ok {
			return undefined
		}
		sub, ok := args[1].(string)
		if !ok {
			return undefined
		}
		return fn(s, sub)
	}
}
