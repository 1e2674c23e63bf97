package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsBind(t *testing.T) {
	p := NewParams()

	assert.Equal(t, "@age", p.Bind("age", 18))
	assert.Equal(t, "@age1", p.Bind("age", 0))
	assert.Equal(t, "@age2", p.Bind("age", 3))
	assert.Equal(t, "@name", p.Bind("name", "x"))
	assert.Equal(t, 4, p.Len())

	assert.Equal(t, []Parameter{
		{Name: "@age", Value: 18},
		{Name: "@age1", Value: 0},
		{Name: "@age2", Value: 3},
		{Name: "@name", Value: "x"},
	}, p.List())
}

func TestParamsBindSanitizesName(t *testing.T) {
	p := NewParams()
	assert.Equal(t, "@address_city", p.Bind("address.city", "Oslo"))
	assert.Equal(t, "@first_name", p.Bind("first-name", "a"))
	assert.Equal(t, "@p", p.Bind("", 1))
	assert.Equal(t, "@_1st", p.Bind("1st", "x"))
	assert.Equal(t, "@_2_b", p.Bind("2.b", "y"))
}

func TestParamsBindSanitizedCollision(t *testing.T) {
	p := NewParams()
	assert.Equal(t, "@a_b", p.Bind("a.b", 1))
	assert.Equal(t, "@a_b1", p.Bind("a_b", 2))
}

func TestParamsListIsCopy(t *testing.T) {
	p := NewParams()
	assert.NotNil(t, p.List())
	assert.Empty(t, p.List())

	p.Bind("a", 1)
	list := p.List()
	list[0].Name = "@changed"
	assert.Equal(t, "@a", p.List()[0].Name)
}
