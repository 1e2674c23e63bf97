package sqlgen

import (
	"strconv"
	"strings"
)

// Parameter is a named bind parameter of a compiled query.
type Parameter struct {
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
}

// Params is the ordered parameter list of one compiled query.
type Params struct {
	list []Parameter
}

// NewParams creates an empty parameter list.
func NewParams() *Params {
	return &Params{}
}

// Bind appends value under a name derived from field and returns that name.
//
// The first bind for a field is named @field, later ones @field1, @field2, ...
// Characters that cannot appear in a parameter name are replaced with '_', and a
// name starting with a digit gets a '_' prefix.
func (p *Params) Bind(field string, value interface{}) string {
	base := "@" + paramName(field)
	name := base
	for i := 1; p.has(name); i++ {
		name = base + strconv.Itoa(i)
	}
	p.list = append(p.list, Parameter{Name: name, Value: value})
	return name
}

func (p *Params) has(name string) bool {
	for _, param := range p.list {
		if param.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of bound parameters.
func (p *Params) Len() int {
	return len(p.list)
}

// List returns a copy of the bound parameters in bind order.
func (p *Params) List() []Parameter {
	out := make([]Parameter, len(p.list))
	copy(out, p.list)
	return out
}

func paramName(field string) string {
	if field == "" {
		return "p"
	}
	var b strings.Builder
	if c := field[0]; c >= '0' && c <= '9' {
		b.WriteByte('_')
	}
	for _, c := range field {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
