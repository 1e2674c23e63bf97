// Package ast defines the filter tree and selection a query is compiled from.
package ast

import "strings"

// Join tells how a child is combined with the expression built from its left siblings.
type Join string

const (
	JoinAnd Join = "AND"
	JoinOr  Join = "OR"
)

// Node is either a *Predicate or a *Group.
type Node interface {
	isNode()
}

// Predicate is a single field/operator/value test.
type Predicate struct {
	Field    string
	Operator string
	Value    interface{}
}

func (*Predicate) isNode() {}

// Child is a node together with the join connecting it to its left siblings.
// The join of the first child in a group is ignored.
type Child struct {
	Join Join
	Node Node
}

// Group is an ordered list of children.
type Group struct {
	Children []Child
}

func (*Group) isNode() {}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

// Add appends a node with the given join.
func (g *Group) Add(join Join, n Node) *Group {
	if join != JoinOr {
		join = JoinAnd
	}
	g.Children = append(g.Children, Child{Join: join, Node: n})
	return g
}

// And appends a node joined with AND.
func (g *Group) And(n Node) *Group {
	return g.Add(JoinAnd, n)
}

// Or appends a node joined with OR.
func (g *Group) Or(n Node) *Group {
	return g.Add(JoinOr, n)
}

// IsEmpty reports whether the group contains no predicate at any depth.
func (g *Group) IsEmpty() bool {
	return g == nil || g.Predicates() == 0
}

// Predicates returns the number of predicates in the group at any depth.
func (g *Group) Predicates() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, c := range g.Children {
		switch node := c.Node.(type) {
		case *Predicate:
			n++
		case *Group:
			n += node.Predicates()
		}
	}
	return n
}

// Walk calls fn for every predicate in depth-first order.
func (g *Group) Walk(fn func(*Predicate)) {
	if g == nil {
		return
	}
	for _, c := range g.Children {
		switch node := c.Node.(type) {
		case *Predicate:
			fn(node)
		case *Group:
			node.Walk(fn)
		}
	}
}

// OrderBy is one sort key.
type OrderBy struct {
	Field     string
	Direction string
}

// Desc reports whether the key sorts descending. Only "desc" (any case) does.
func (o OrderBy) Desc() bool {
	return strings.EqualFold(o.Direction, "desc")
}

// Selection is the typed form of a selection query.
type Selection struct {
	Where   *Group
	OrderBy []OrderBy
	// Limit caps the number of results when positive.
	Limit int
	// Skip is accepted for compatibility and never emitted into a compiled query.
	Skip int
	// Fields projects the listed fields. Ignored when Select is set.
	Fields []string
	// Select replaces the projection verbatim.
	Select string
}

// Field is one entry of an ordered field map.
type Field struct {
	Name  string
	Value interface{}
}

// Fields is a field map that keeps its insertion order.
type Fields []Field
