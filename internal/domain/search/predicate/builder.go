package predicate

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
)

// Builder errors.
var (
	ErrUnbalancedBrackets = errors.New("unbalanced brackets")
	ErrUnknownAlias       = errors.New("unknown join alias")
	ErrAlreadyBuilt       = errors.New("builder already built")
)

// Option tunes a single leaf.
type Option func(*Leaf)

// On addresses the attribute on a declared join alias instead of the root entity.
func On(alias string) Option {
	return func(l *Leaf) { l.Attr.Alias = alias }
}

// CaseSensitive sets case handling for string comparisons (default true).
func CaseSensitive(v bool) Option {
	return func(l *Leaf) { l.CaseSensitive = v }
}

// frame is one bracket level. sealed marks a node produced by a closed bracket,
// which later connectors wrap instead of extending.
type frame struct {
	node    Node
	pending Connector
	sealed  bool
}

// Builder assembles a predicate tree with a fluent API.
// Without brackets connectors fold left to right: a AND b OR c is (a AND b) OR c.
// A Builder belongs to one search and is not safe for concurrent use.
type Builder struct {
	variant project.Variant
	joins   []Join
	aliases map[string]struct{}
	frames  []*frame
	built   bool
	err     error
}

// NewBuilder starts a tree over the given variant.
func NewBuilder(variant project.Variant) *Builder {
	return &Builder{
		variant: variant,
		aliases: map[string]struct{}{},
		frames:  []*frame{{}},
	}
}

// Join declares a related entity. parent is "" for the root or a previously declared alias.
func (b *Builder) Join(path, parent, alias string) *Builder {
	if !b.usable() {
		return b
	}
	if path == "" || alias == "" {
		b.fail(errors.New("join path and alias are required"))
		return b
	}
	if parent != "" {
		if _, ok := b.aliases[parent]; !ok {
			b.fail(fmt.Errorf("%w: %q", ErrUnknownAlias, parent))
			return b
		}
	}
	if _, ok := b.aliases[alias]; ok {
		b.fail(fmt.Errorf("duplicate join alias %q", alias))
		return b
	}
	b.aliases[alias] = struct{}{}
	b.joins = append(b.joins, Join{Path: path, Parent: parent, Alias: alias})
	return b
}

// Equals adds path = value. An empty value matches no row.
func (b *Builder) Equals(path, value string, opts ...Option) *Builder {
	return b.leaf(path, OpEquals, []string{value}, 0, opts)
}

// Like adds a substring match of value against path. An empty value matches every row.
func (b *Builder) Like(path, value string, opts ...Option) *Builder {
	return b.leaf(path, OpLike, []string{value}, 0, opts)
}

// LessOrEqual adds path <= n.
func (b *Builder) LessOrEqual(path string, n float64, opts ...Option) *Builder {
	return b.leaf(path, OpLessOrEqual, nil, n, opts)
}

// GreaterOrEqual adds path >= n.
func (b *Builder) GreaterOrEqual(path string, n float64, opts ...Option) *Builder {
	return b.leaf(path, OpGreaterOrEqual, nil, n, opts)
}

// ContainsAll requires the multi-valued path to contain every value. No values is always true.
func (b *Builder) ContainsAll(path string, values []string, opts ...Option) *Builder {
	return b.leaf(path, OpContainsAll, values, 0, opts)
}

// ContainsAny requires the multi-valued path to contain at least one value. No values is always false.
func (b *Builder) ContainsAny(path string, values []string, opts ...Option) *Builder {
	return b.leaf(path, OpContainsAny, values, 0, opts)
}

// In requires path to equal one of values. No values is always false.
func (b *Builder) In(path string, values []string, opts ...Option) *Builder {
	return b.leaf(path, OpIn, values, 0, opts)
}

// IsNull requires path to be absent.
func (b *Builder) IsNull(path string, opts ...Option) *Builder {
	return b.leaf(path, OpIsNull, nil, 0, opts)
}

// IsNotNull requires path to be present.
func (b *Builder) IsNotNull(path string, opts ...Option) *Builder {
	return b.leaf(path, OpIsNotNull, nil, 0, opts)
}

// And joins the next operand with AND.
func (b *Builder) And() *Builder { return b.connect(And) }

// Or joins the next operand with OR.
func (b *Builder) Or() *Builder { return b.connect(Or) }

// OpenBracket starts a nested group.
func (b *Builder) OpenBracket() *Builder {
	if !b.usable() {
		return b
	}
	b.frames = append(b.frames, &frame{})
	return b
}

// CloseBracket ends the innermost nested group and adds it as one operand.
func (b *Builder) CloseBracket() *Builder {
	if !b.usable() {
		return b
	}
	if len(b.frames) < 2 {
		b.fail(fmt.Errorf("%w: close without open", ErrUnbalancedBrackets))
		return b
	}
	top := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	if top.node != nil {
		b.add(top.node, true)
	}
	return b
}

// Build returns the immutable query. The builder cannot be used afterwards.
func (b *Builder) Build() (Query, error) {
	if b.built {
		return Query{}, ErrAlreadyBuilt
	}
	b.built = true
	if b.err != nil {
		return Query{}, b.err
	}
	if len(b.frames) != 1 {
		return Query{}, fmt.Errorf("%w: %d left open", ErrUnbalancedBrackets, len(b.frames)-1)
	}
	joins := make([]Join, len(b.joins))
	copy(joins, b.joins)
	return Query{variant: b.variant, joins: joins, root: b.frames[0].node}, nil
}

func (b *Builder) leaf(path string, op Operator, values []string, n float64, opts []Option) *Builder {
	if !b.usable() {
		return b
	}
	if path == "" {
		b.fail(fmt.Errorf("%s: attribute path is required", op))
		return b
	}
	l := &Leaf{Attr: Attribute{Path: path}, Op: op, Number: n, CaseSensitive: true}
	if len(values) > 0 {
		l.Values = make([]string, len(values))
		copy(l.Values, values)
	}
	for _, o := range opts {
		o(l)
	}
	if l.Attr.Alias != "" {
		if _, ok := b.aliases[l.Attr.Alias]; !ok {
			b.fail(fmt.Errorf("%w: %q", ErrUnknownAlias, l.Attr.Alias))
			return b
		}
	}
	b.add(l, false)
	return b
}

func (b *Builder) connect(c Connector) *Builder {
	if !b.usable() {
		return b
	}
	b.frames[len(b.frames)-1].pending = c
	return b
}

// add appends n to the innermost frame. A missing connector means AND.
func (b *Builder) add(n Node, sealed bool) {
	f := b.frames[len(b.frames)-1]
	conn := f.pending
	f.pending = 0
	if conn == 0 {
		conn = And
	}

	switch cur := f.node.(type) {
	case nil:
		f.node = n
		f.sealed = sealed
		return
	case *Group:
		if !f.sealed && cur.Kind == conn {
			cur.Children = append(cur.Children, n)
			return
		}
	}
	f.node = &Group{Kind: conn, Children: []Node{f.node, n}}
	f.sealed = false
}

func (b *Builder) usable() bool {
	if b.built {
		if b.err == nil {
			b.err = ErrAlreadyBuilt
		}
		return false
	}
	return b.err == nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
