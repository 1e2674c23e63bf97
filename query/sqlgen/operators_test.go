package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-docdb/runtime"
)

func TestDefaultOperators(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"=", "user.age = @age"},
		{"==", "user.age = @age"},
		{"===", "user.age = @age"},
		{"!=", "user.age != @age"},
		{"!==", "user.age != @age"},
		{">", "user.age > @age"},
		{">=", "user.age >= @age"},
		{"<", "user.age < @age"},
		{"<=", "user.age <= @age"},
		{"in", "ARRAY_CONTAINS(@age, user.age)"},
		{"notIn", "NOT ARRAY_CONTAINS(@age, user.age)"},
		{"contains", "ARRAY_CONTAINS(user.age, @age)"},
		{"notContains", "NOT ARRAY_CONTAINS(user.age, @age)"},
	}

	reg := NewRegistry(nil)
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			fn, err := reg.Lookup(tt.symbol)
			require.NoError(t, err)

			params := NewParams()
			assert.Equal(t, tt.want, fn("age", 1, params, "user"))
			assert.Equal(t, 1, params.Len())
		})
	}
}

func TestRegistryPrecedence(t *testing.T) {
	fixed := func(s string) OperatorFunc {
		return func(field string, value interface{}, params *Params, alias string) string { return s }
	}

	reg := NewRegistry(Operators{"==": fixed("adapter"), "~": fixed("adapter-only")})
	call := reg.WithOverrides(Operators{"==": fixed("call")})

	fn, err := call.Lookup("==")
	require.NoError(t, err)
	assert.Equal(t, "call", fn("a", 1, NewParams(), "x"))

	fn, err = call.Lookup("~")
	require.NoError(t, err)
	assert.Equal(t, "adapter-only", fn("a", 1, NewParams(), "x"))

	fn, err = call.Lookup(">")
	require.NoError(t, err)
	assert.Equal(t, "x.a > @a", fn("a", 1, NewParams(), "x"))

	// the base registry is unchanged by the call-level tier
	fn, err = reg.Lookup("==")
	require.NoError(t, err)
	assert.Equal(t, "adapter", fn("a", 1, NewParams(), "x"))

	assert.Same(t, reg, reg.WithOverrides(nil))
}

func TestRegistryUnsupported(t *testing.T) {
	_, err := NewRegistry(nil).Lookup("~~")
	require.Error(t, err)
	assert.True(t, runtime.IsUnsupportedOperator(err))

	var opErr *runtime.UnsupportedOperatorError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "~~", opErr.Operator)
}

func TestRegistryDefaultsAreCopied(t *testing.T) {
	ops := DefaultOperators()
	delete(ops, "==")

	_, err := NewRegistry(nil).Lookup("==")
	assert.NoError(t, err)
}

func TestRegistrySymbols(t *testing.T) {
	reg := NewRegistry(Operators{"like": compare("LIKE")})
	symbols := reg.Symbols()
	assert.Contains(t, symbols, "like")
	assert.Contains(t, symbols, "notContains")
	assert.IsIncreasing(t, symbols)
}

func TestFieldRef(t *testing.T) {
	assert.Equal(t, "user.name", FieldRef("user", "name"))
	assert.Equal(t, "user.address.city", FieldRef("user", "address.city"))
	assert.Equal(t, `user["first-name"]`, FieldRef("user", "first-name"))
	assert.Equal(t, `user.tags["0"]`, FieldRef("user", "tags.0"))
	assert.Equal(t, `user["order"].total`, FieldRef("user", "order.total"))
	assert.Equal(t, `user["Value"]`, FieldRef("user", "Value"))
}
