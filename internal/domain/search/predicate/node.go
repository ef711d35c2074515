package predicate

import (
	"strconv"
	"strings"
)

// Connector joins the children of a group.
type Connector int

// Connectors.
const (
	And Connector = iota + 1
	Or
)

func (c Connector) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}

// Operator is a leaf comparison.
type Operator int

// Leaf operators.
const (
	OpEquals Operator = iota + 1
	OpLike
	OpLessOrEqual
	OpGreaterOrEqual
	OpContainsAll
	OpContainsAny
	OpIn
	OpIsNull
	OpIsNotNull
)

var operatorNames = map[Operator]string{
	OpEquals:         "=",
	OpLike:           "LIKE",
	OpLessOrEqual:    "<=",
	OpGreaterOrEqual: ">=",
	OpContainsAll:    "CONTAINS ALL",
	OpContainsAny:    "CONTAINS ANY",
	OpIn:             "IN",
	OpIsNull:         "IS NULL",
	OpIsNotNull:      "IS NOT NULL",
}

func (o Operator) String() string { return operatorNames[o] }

// Containment reports whether the operator ranges over a multi-valued relation.
func (o Operator) Containment() bool { return o == OpContainsAll || o == OpContainsAny }

// Attribute addresses a (possibly nested, dot-separated) path on the root entity or on a join alias.
type Attribute struct {
	Alias string
	Path  string
}

func (a Attribute) String() string {
	if a.Alias == "" {
		return a.Path
	}
	return a.Alias + "." + a.Path
}

// Node is a predicate tree node: *Group or *Leaf.
type Node interface {
	node()
	String() string
}

// Group combines children with one connector.
type Group struct {
	Kind     Connector
	Children []Node
}

func (*Group) node() {}

func (g *Group) String() string {
	parts := make([]string, len(g.Children))
	for i, c := range g.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " "+g.Kind.String()+" ") + ")"
}

// Leaf is a single comparison. Values holds string operands, Number numeric ones.
type Leaf struct {
	Attr          Attribute
	Op            Operator
	Values        []string
	Number        float64
	CaseSensitive bool
}

func (*Leaf) node() {}

func (l *Leaf) String() string {
	var b strings.Builder
	b.WriteString(l.Attr.String())
	b.WriteByte(' ')
	b.WriteString(l.Op.String())
	switch l.Op {
	case OpIsNull, OpIsNotNull:
	case OpLessOrEqual, OpGreaterOrEqual:
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(l.Number, 'f', -1, 64))
	case OpEquals, OpLike:
		b.WriteString(" '")
		b.WriteString(strings.Join(l.Values, ""))
		b.WriteByte('\'')
	default:
		b.WriteString(" [")
		b.WriteString(strings.Join(l.Values, ", "))
		b.WriteByte(']')
	}
	if !l.CaseSensitive && (l.Op == OpEquals || l.Op == OpLike || l.Op == OpIn) {
		b.WriteString(" ci")
	}
	return b.String()
}

// Walk visits n and its descendants depth-first. Returning false stops the walk.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	if g, ok := n.(*Group); ok {
		for _, c := range g.Children {
			if !Walk(c, fn) {
				return false
			}
		}
	}
	return true
}
