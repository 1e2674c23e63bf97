package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/query/ast"
	"github.com/satishbabariya/prisma-docdb/runtime"
)

func buildWhere(t *testing.T, where interface{}) (string, []Parameter, error) {
	t.Helper()
	g, err := ast.ParseWhere(where)
	require.NoError(t, err)
	params := NewParams()
	text, err := BuildWhere(g, "user", NewRegistry(nil), params)
	return text, params.List(), err
}

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name   string
		where  interface{}
		want   string
		params []Parameter
	}{
		{
			name:   "equality",
			where:  map[string]interface{}{"status": "active"},
			want:   "(user.status = @status)",
			params: []Parameter{{Name: "@status", Value: "active"}},
		},
		{
			name: "or array",
			where: []interface{}{
				map[string]interface{}{"age": map[string]interface{}{">": 18}},
				"or",
				map[string]interface{}{"age": map[string]interface{}{"<": 0}},
			},
			want:   "(user.age > @age) OR (user.age < @age1)",
			params: []Parameter{{Name: "@age", Value: 18}, {Name: "@age1", Value: 0}},
		},
		{
			name: "implicit and between groups",
			where: []interface{}{
				map[string]interface{}{"a": 1},
				map[string]interface{}{"b": 2},
			},
			want:   "(user.a = @a) AND (user.b = @b)",
			params: []Parameter{{Name: "@a", Value: 1}, {Name: "@b", Value: 2}},
		},
		{
			name: "or marker inside one group",
			where: map[string]interface{}{
				"a": 1,
				"b": map[string]interface{}{">": 2, "|<": 0},
			},
			want: "(user.a = @a AND user.b > @b OR user.b < @b1)",
			params: []Parameter{
				{Name: "@a", Value: 1},
				{Name: "@b", Value: 2},
				{Name: "@b1", Value: 0},
			},
		},
		{
			name: "nested array",
			where: []interface{}{
				map[string]interface{}{"role": "admin"},
				"or",
				[]interface{}{
					map[string]interface{}{"role": "user"},
					map[string]interface{}{"tags": map[string]interface{}{"contains": "beta"}},
				},
			},
			want: "(user.role = @role) OR ((user.role = @role1) AND (ARRAY_CONTAINS(user.tags, @tags)))",
			params: []Parameter{
				{Name: "@role", Value: "admin"},
				{Name: "@role1", Value: "user"},
				{Name: "@tags", Value: "beta"},
			},
		},
		{
			name:   "membership",
			where:  map[string]interface{}{"id": map[string]interface{}{"in": []interface{}{"a", "b"}}},
			want:   "(ARRAY_CONTAINS(@id, user.id))",
			params: []Parameter{{Name: "@id", Value: []interface{}{"a", "b"}}},
		},
		{
			name:   "empty",
			where:  map[string]interface{}{},
			want:   "",
			params: []Parameter{},
		},
		{
			name:   "empty groups skipped",
			where:  []interface{}{map[string]interface{}{}, "or", map[string]interface{}{"a": 1}},
			want:   "(user.a = @a)",
			params: []Parameter{{Name: "@a", Value: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, params, err := buildWhere(t, tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestBuildWhereUnsupportedOperator(t *testing.T) {
	inputs := []interface{}{
		map[string]interface{}{"name": map[string]interface{}{"~~": "x"}},
		[]interface{}{
			map[string]interface{}{"a": 1},
			"or",
			[]interface{}{map[string]interface{}{"name": map[string]interface{}{"~~": "x"}}},
		},
	}
	for _, in := range inputs {
		got, _, err := buildWhere(t, in)
		require.Error(t, err)
		assert.True(t, runtime.IsUnsupportedOperator(err))
		assert.Empty(t, got)
	}
}

func TestBuildWhereNilGroup(t *testing.T) {
	got, err := BuildWhere(nil, "user", NewRegistry(nil), NewParams())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildWhereUniqueParams(t *testing.T) {
	where := []interface{}{
		map[string]interface{}{"a": map[string]interface{}{">": 1, "<": 9, "!=": 5}},
		"or",
		map[string]interface{}{"a": 2, "a_": 3},
		[]interface{}{map[string]interface{}{"a": map[string]interface{}{"in": []int{1}}}},
	}
	g, err := ast.ParseWhere(where)
	require.NoError(t, err)

	params := NewParams()
	_, err = BuildWhere(g, "user", NewRegistry(nil), params)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range params.List() {
		assert.False(t, seen[p.Name], "duplicate parameter %s", p.Name)
		seen[p.Name] = true
	}
	assert.Equal(t, g.Predicates(), params.Len())
}
