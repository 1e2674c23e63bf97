package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/runtime"
)

func TestParseWhere_ObjectForm(t *testing.T) {
	root, err := ParseWhere(map[string]interface{}{
		"status": "active",
		"age":    map[string]interface{}{">": 18, "|<": 0},
	})
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	g, ok := root.Children[0].Node.(*Group)
	require.True(t, ok)
	require.Len(t, g.Children, 3)

	// keys sorted: age before status; symbols sorted: ">" before "|<"
	assert.Equal(t, &Predicate{Field: "age", Operator: ">", Value: 18}, g.Children[0].Node)
	assert.Equal(t, JoinOr, g.Children[1].Join)
	assert.Equal(t, &Predicate{Field: "age", Operator: "<", Value: 0}, g.Children[1].Node)
	assert.Equal(t, JoinAnd, g.Children[2].Join)
	assert.Equal(t, &Predicate{Field: "status", Operator: "==", Value: "active"}, g.Children[2].Node)
	assert.Equal(t, 3, root.Predicates())
}

func TestParseWhere_OrderedFields(t *testing.T) {
	root, err := ParseWhere(Fields{
		{Name: "status", Value: "active"},
		{Name: "age", Value: Fields{{Name: "<", Value: 65}, {Name: ">", Value: 18}}},
	})
	require.NoError(t, err)

	var seen []string
	root.Walk(func(p *Predicate) { seen = append(seen, p.Field+p.Operator) })
	assert.Equal(t, []string{"status==", "age<", "age>"}, seen)
}

func TestParseWhere_ArrayForm(t *testing.T) {
	root, err := ParseWhere([]interface{}{
		map[string]interface{}{"age": map[string]interface{}{">": 18}},
		"or",
		map[string]interface{}{"age": map[string]interface{}{"<": 0}},
		[]interface{}{
			map[string]interface{}{"a": 1},
			"OR",
			map[string]interface{}{"b": 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, root.Children, 3)
	assert.Equal(t, JoinAnd, root.Children[0].Join)
	assert.Equal(t, JoinOr, root.Children[1].Join)
	assert.Equal(t, JoinAnd, root.Children[2].Join)

	nested := root.Children[2].Node.(*Group)
	require.Len(t, nested.Children, 2)
	assert.Equal(t, JoinOr, nested.Children[1].Join)
	assert.Equal(t, 4, root.Predicates())
}

func TestParseWhere_Empty(t *testing.T) {
	for _, in := range []interface{}{nil, map[string]interface{}{}, []interface{}{}} {
		root, err := ParseWhere(in)
		require.NoError(t, err)
		assert.True(t, root.IsEmpty())
	}
}

func TestParseWhere_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
	}{
		{name: "scalar", in: 42},
		{name: "unknown connector", in: []interface{}{map[string]interface{}{"a": 1}, "xor", map[string]interface{}{"b": 1}}},
		{name: "scalar element", in: []interface{}{1}},
		{name: "bare marker", in: map[string]interface{}{"a": map[string]interface{}{"|": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWhere(tt.in)
			require.Error(t, err)
			assert.True(t, runtime.IsValidation(err))
		})
	}
}

func TestParseWhere_GroupPassThrough(t *testing.T) {
	g := NewGroup().And(&Predicate{Field: "a", Operator: "==", Value: 1})
	root, err := ParseWhere(g)
	require.NoError(t, err)
	assert.Same(t, g, root)
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []OrderBy
	}{
		{name: "nil", in: nil, want: nil},
		{name: "single field", in: "name", want: []OrderBy{{Field: "name"}}},
		{name: "field with direction", in: "name DESC", want: []OrderBy{{Field: "name", Direction: "DESC"}}},
		{
			name: "pairs and strings",
			in:   []interface{}{[]interface{}{"name", "desc"}, "age"},
			want: []OrderBy{{Field: "name", Direction: "desc"}, {Field: "age"}},
		},
		{name: "string list", in: []string{"a", "b asc"}, want: []OrderBy{{Field: "a"}, {Field: "b", Direction: "asc"}}},
		{name: "typed", in: []OrderBy{{Field: "x"}}, want: []OrderBy{{Field: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrderBy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOrderBy([]interface{}{[]interface{}{1, "desc"}})
	assert.True(t, runtime.IsValidation(err))
	_, err = ParseOrderBy(3)
	assert.True(t, runtime.IsValidation(err))
}

func TestOrderByDesc(t *testing.T) {
	assert.True(t, OrderBy{Direction: "DeSc"}.Desc())
	assert.False(t, OrderBy{Direction: "descending"}.Desc())
	assert.False(t, OrderBy{}.Desc())
}
