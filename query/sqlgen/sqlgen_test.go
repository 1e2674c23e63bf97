package sqlgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/query/ast"
	"github.com/satishbabariya/prisma-docdb/runtime"
)

func TestGenerateSelect(t *testing.T) {
	where, err := ast.ParseWhere(map[string]interface{}{"status": "active"})
	require.NoError(t, err)

	tests := []struct {
		name string
		sel  *ast.Selection
		want string
	}{
		{name: "nil selection", sel: nil, want: "SELECT * FROM user"},
		{name: "where", sel: &ast.Selection{Where: where}, want: "SELECT * FROM user WHERE (user.status = @status)"},
		{
			name: "top and order",
			sel: &ast.Selection{
				Limit:   5,
				OrderBy: []ast.OrderBy{{Field: "name", Direction: "desc"}, {Field: "age"}},
			},
			want: "SELECT TOP 5 * FROM user ORDER BY user.name DESC, user.age",
		},
		{
			name: "skip is not emitted",
			sel:  &ast.Selection{Skip: 10, Limit: 2},
			want: "SELECT TOP 2 * FROM user",
		},
		{
			name: "fields",
			sel:  &ast.Selection{Fields: []string{"id", "address.city"}},
			want: "SELECT user.id, user.address.city FROM user",
		},
		{
			name: "select wins over fields",
			sel:  &ast.Selection{Fields: []string{"id"}, Select: "VALUE COUNT(1)"},
			want: "SELECT VALUE COUNT(1) FROM user",
		},
		{
			name: "ascending direction emits no suffix",
			sel:  &ast.Selection{OrderBy: []ast.OrderBy{{Field: "a", Direction: "ASC"}, {Field: "b", Direction: "sideways"}}},
			want: "SELECT * FROM user ORDER BY user.a, user.b",
		},
		{
			name: "empty where group",
			sel:  &ast.Selection{Where: ast.NewGroup().And(ast.NewGroup())},
			want: "SELECT * FROM user",
		},
	}

	gen := NewGenerator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := gen.GenerateSelect("user", tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Text)
		})
	}
}

func TestGenerateSelectIdempotent(t *testing.T) {
	where, err := ast.ParseWhere([]interface{}{
		map[string]interface{}{"age": map[string]interface{}{">": 18}},
		"or",
		map[string]interface{}{"age": map[string]interface{}{"<": 0}},
	})
	require.NoError(t, err)
	sel := &ast.Selection{Where: where, Limit: 3}

	gen := NewGenerator(nil)
	first, err := gen.GenerateSelect("user", sel)
	require.NoError(t, err)
	second, err := gen.GenerateSelect("user", sel)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	if diff := cmp.Diff(first.Parameters, second.Parameters); diff != "" {
		t.Errorf("parameters differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, "SELECT TOP 3 * FROM user WHERE (user.age > @age) OR (user.age < @age1)", first.Text)
}

func TestGenerateSelectUnsupportedOperator(t *testing.T) {
	where, err := ast.ParseWhere(map[string]interface{}{"a": map[string]interface{}{"~~": 1}})
	require.NoError(t, err)

	q, err := NewGenerator(nil).GenerateSelect("user", &ast.Selection{Where: where})
	assert.Nil(t, q)
	assert.True(t, runtime.IsUnsupportedOperator(err))
}

func TestGenerateSelectCustomRegistry(t *testing.T) {
	where, err := ast.ParseWhere(map[string]interface{}{"name": map[string]interface{}{"startsWith": "Jo"}})
	require.NoError(t, err)

	reg := NewRegistry(Operators{
		"startsWith": func(field string, value interface{}, params *Params, alias string) string {
			return "STARTSWITH(" + FieldRef(alias, field) + ", " + params.Bind(field, value) + ")"
		},
	})
	q, err := NewGenerator(reg).GenerateSelect("user", &ast.Selection{Where: where})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM user WHERE (STARTSWITH(user.name, @name))", q.Text)
	assert.Equal(t, []Parameter{{Name: "@name", Value: "Jo"}}, q.Parameters)
}
