// Package docsql parses and evaluates the SQL-like dialect document queries are
// compiled into:
//
//	SELECT [TOP n] * | VALUE <expr> | <expr>, ... FROM <alias>
//	  [WHERE <expr>] [ORDER BY <path> [ASC|DESC], ...]
//
// Expressions support AND, OR, NOT, the comparison operators, @parameters,
// literals, property paths (alias.a.b, alias["a-b"], alias.tags[0]) and a
// handful of built-in functions such as ARRAY_CONTAINS.
package docsql

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultCacheSize is the number of parsed statements kept by Parse.
const DefaultCacheSize = 256

var statements = newStatementCache(DefaultCacheSize)

// Query is a parsed statement ready to run against documents.
type Query struct {
	text string
	stmt *Statement
}

// Parse parses text. Parsed statements are cached by text; the cached tree is
// never modified.
func Parse(text string) (*Query, error) {
	if stmt, ok := statements.get(text); ok {
		return &Query{text: text, stmt: stmt}, nil
	}
	stmt, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	statements.add(text, stmt)
	return &Query{text: text, stmt: stmt}, nil
}

// Stats returns the statement cache statistics.
func Stats() CacheStats {
	return statements.snapshot()
}

// String returns the query text.
func (q *Query) String() string {
	return q.text
}

// Alias returns the collection alias named in FROM.
func (q *Query) Alias() string {
	return q.stmt.From
}

// Top returns the TOP limit, or 0 if none was given.
func (q *Query) Top() int {
	if q.stmt.Top == nil {
		return 0
	}
	return *q.stmt.Top
}

// Execute filters, orders, limits and projects docs. params maps parameter
// names, including the leading @, to values. docs are not modified.
func (q *Query) Execute(docs []map[string]interface{}, params map[string]interface{}) ([]map[string]interface{}, error) {
	normParams := make(map[string]interface{}, len(params))
	for k, v := range params {
		normParams[k] = Normalize(v)
	}

	type row struct {
		doc  map[string]interface{}
		keys []interface{}
	}

	var rows []row
	for _, d := range docs {
		doc, _ := Normalize(d).(map[string]interface{})
		e := &env{alias: q.stmt.From, doc: doc, params: normParams}

		if q.stmt.Where != nil {
			v, err := e.expr(q.stmt.Where)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				continue
			}
		}

		r := row{doc: doc}
		for _, key := range q.stmt.OrderBy {
			v, err := e.path(key.Path)
			if err != nil {
				return nil, err
			}
			r.keys = append(r.keys, v)
		}
		rows = append(rows, r)
	}

	if len(q.stmt.OrderBy) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for k, key := range q.stmt.OrderBy {
				c := sortCompare(rows[i].keys[k], rows[j].keys[k])
				if c == 0 {
					continue
				}
				if strings.EqualFold(key.Direction, "DESC") {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if top := q.Top(); top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		projected, err := q.project(&env{alias: q.stmt.From, doc: r.doc, params: normParams})
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

// project shapes one result. A VALUE projection that is not an object is
// returned under the key "$1", as are unnamed list items by position.
func (q *Query) project(e *env) (map[string]interface{}, error) {
	p := q.stmt.Projection
	switch {
	case p.Star:
		return e.doc, nil
	case p.Value != nil:
		v, err := e.expr(p.Value)
		if err != nil {
			return nil, err
		}
		if m, ok := v.(map[string]interface{}); ok {
			return m, nil
		}
		if isUndefined(v) {
			return map[string]interface{}{}, nil
		}
		return map[string]interface{}{"$1": v}, nil
	}

	out := make(map[string]interface{}, len(p.Items))
	for i, item := range p.Items {
		v, err := e.expr(item)
		if err != nil {
			return nil, err
		}
		if isUndefined(v) {
			continue
		}
		out[itemName(item, i)] = v
	}
	return out, nil
}

// itemName names a projected expression after the last step of a bare path.
func itemName(x *Expr, i int) string {
	if len(x.Or) == 1 && len(x.Or[0].And) == 1 {
		n := x.Or[0].And[0]
		if n.Cmp != nil && n.Cmp.Op == "" && n.Cmp.Left.Path != nil {
			p := n.Cmp.Left.Path
			if len(p.Segments) > 0 {
				last := p.Segments[len(p.Segments)-1]
				switch {
				case last.Name != nil:
					return *last.Name
				case last.Key != nil:
					return *last.Key
				}
			}
		}
	}
	return "$" + strconv.Itoa(i+1)
}
