package predicate

import "github.com/kailas-cloud/marketplace/internal/domain/project"

// Join declares a related entity reachable from Parent ("" for the root) via Path, addressed by Alias.
type Join struct {
	Path   string
	Parent string
	Alias  string
}

// Query is a built predicate tree over a project variant. It is immutable.
type Query struct {
	variant project.Variant
	joins   []Join
	root    Node
}

// Variant returns the target variant; Generic matches every variant.
func (q Query) Variant() project.Variant { return q.variant }

// Joins returns the declared joins.
func (q Query) Joins() []Join {
	out := make([]Join, len(q.joins))
	copy(out, q.joins)
	return out
}

// Root returns the tree root, nil when no predicate was added.
func (q Query) Root() Node { return q.root }

// FansOut reports whether the tree ranges over a multi-valued relation, so a row
// could match more than once without de-duplication.
func (q Query) FansOut() bool {
	fans := false
	Walk(q.root, func(n Node) bool {
		if l, ok := n.(*Leaf); ok && l.Op.Containment() {
			fans = true
			return false
		}
		return true
	})
	return fans
}

// String renders the tree for logs.
func (q Query) String() string {
	if q.root == nil {
		return string(q.variant) + " *"
	}
	return string(q.variant) + " " + q.root.String()
}
