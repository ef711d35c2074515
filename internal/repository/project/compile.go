package project

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/marketplace/internal/db"
	domproj "github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
)

// attributeFields maps attribute paths, with joins resolved, to index aliases.
var attributeFields = map[string]string{
	"id":              fieldID,
	"visibilityScope": fieldVisibility,
	"slug":            fieldSlug,
	"globalSlug":      fieldGlobalSlug,
	"name":            fieldNameTag,
	"namespace":       fieldNamespace,
	"ownerId":         fieldOwnerID,
	"starsCount":      fieldStarsCount,
	"forksCount":      fieldForksCount,
	"tags.id":         fieldTagIDs,
	"inputDataTypes":  fieldInputDataTypes,
	"outputDataTypes": fieldOutputDataTypes,

	"dataProcessor.type":                                      fieldProcessorType,
	"dataProcessor.processorVersion.modelType":                fieldModelType,
	"dataProcessor.processorVersion.mlCategory":               fieldMLCategory,
	"dataProcessor.processorVersion.publishingInfo.finishedAt": fieldPublishedAt,
}

var sortFields = map[string]string{
	"starsCount": fieldStarsCount,
	"forksCount": fieldForksCount,
	"name":       fieldNameTag,
	"slug":       fieldSlug,
}

type truth int

const (
	truthOpen truth = iota
	truthTrue
	truthFalse
)

// fragment is a compiled subtree; expr is set only when the value is not constant.
type fragment struct {
	expr  string
	truth truth
}

func open(expr string) fragment { return fragment{expr: expr} }

// compiled is the query-engine form of a predicate tree.
// empty means the tree folded to false and nothing needs to run.
type compiled struct {
	query string
	empty bool
}

type compiler struct {
	index *db.IndexDefinition
	joins map[string]string // alias -> resolved path
}

// compile translates q into FT.SEARCH syntax (DIALECT 2) against idx.
func compile(idx *db.IndexDefinition, q predicate.Query) (compiled, error) {
	c := &compiler{index: idx, joins: map[string]string{}}
	for _, j := range q.Joins() {
		path := j.Path
		if j.Parent != "" {
			base, ok := c.joins[j.Parent]
			if !ok {
				return compiled{}, fmt.Errorf("%w: %q", predicate.ErrUnknownAlias, j.Parent)
			}
			path = base + "." + j.Path
		}
		c.joins[j.Alias] = path
	}

	root := fragment{truth: truthTrue}
	if q.Root() != nil {
		var err error
		if root, err = c.node(q.Root()); err != nil {
			return compiled{}, err
		}
	}
	if root.truth == truthFalse {
		return compiled{empty: true}, nil
	}

	var parts []string
	if v := q.Variant(); v != domproj.Generic {
		parts = append(parts, "@"+fieldVariant+":{"+db.EscapeTag(string(v))+"}")
	}
	if root.truth == truthOpen {
		parts = append(parts, root.expr)
	}
	if len(parts) == 0 {
		return compiled{query: "*"}, nil
	}
	return compiled{query: strings.Join(parts, " ")}, nil
}

func (c *compiler) node(n predicate.Node) (fragment, error) {
	switch n := n.(type) {
	case *predicate.Group:
		return c.group(n)
	case *predicate.Leaf:
		return c.leaf(n)
	default:
		return fragment{}, fmt.Errorf("unknown predicate node %T", n)
	}
}

// group folds constant children: AND with a false child is false, OR drops false children.
func (c *compiler) group(g *predicate.Group) (fragment, error) {
	absorbing, neutral, sep := truthFalse, truthTrue, " "
	if g.Kind == predicate.Or {
		absorbing, neutral, sep = truthTrue, truthFalse, " | "
	}

	exprs := make([]string, 0, len(g.Children))
	for _, child := range g.Children {
		f, err := c.node(child)
		if err != nil {
			return fragment{}, err
		}
		switch f.truth {
		case absorbing:
			return fragment{truth: absorbing}, nil
		case neutral:
			continue
		}
		exprs = append(exprs, f.expr)
	}

	switch len(exprs) {
	case 0:
		return fragment{truth: neutral}, nil
	case 1:
		return open(exprs[0]), nil
	default:
		return open("(" + strings.Join(exprs, sep) + ")"), nil
	}
}

func (c *compiler) leaf(l *predicate.Leaf) (fragment, error) {
	f, err := c.field(l.Attr)
	if err != nil {
		return fragment{}, err
	}
	name := "@" + f.Alias

	switch l.Op {
	case predicate.OpIsNull, predicate.OpIsNotNull:
		if !f.IndexMissing {
			return fragment{}, fmt.Errorf("%s: field does not index missing values", l.Attr)
		}
		expr := "ismissing(" + name + ")"
		if l.Op == predicate.OpIsNotNull {
			expr = "-" + expr
		}
		return open(expr), nil
	case predicate.OpLessOrEqual, predicate.OpGreaterOrEqual:
		if f.Type != db.IndexFieldNumeric {
			return fragment{}, fmt.Errorf("%s: range requires a numeric field", l.Attr)
		}
		n := formatNumber(l.Number)
		if l.Op == predicate.OpLessOrEqual {
			return open(name + ":[-inf " + n + "]"), nil
		}
		return open(name + ":[" + n + " +inf]"), nil
	}

	if f.Type == db.IndexFieldNumeric {
		if l.Op != predicate.OpEquals {
			return fragment{}, fmt.Errorf("%s: %s is not supported on a numeric field", l.Attr, l.Op)
		}
		if l.Values[0] == "" {
			return fragment{truth: truthFalse}, nil
		}
		n, err := strconv.ParseFloat(l.Values[0], 64)
		if err != nil {
			return fragment{}, fmt.Errorf("%s: %q is not a number", l.Attr, l.Values[0])
		}
		s := formatNumber(n)
		return open(name + ":[" + s + " " + s + "]"), nil
	}
	if f.Type != db.IndexFieldTag {
		return fragment{}, fmt.Errorf("%s: field is not filterable", l.Attr)
	}
	if l.CaseSensitive != f.TagCaseSensitive {
		mode := "case-insensitively"
		if f.TagCaseSensitive {
			mode = "case-sensitively"
		}
		return fragment{}, fmt.Errorf("%s: field only matches %s", l.Attr, mode)
	}

	switch l.Op {
	case predicate.OpEquals:
		if l.Values[0] == "" {
			return fragment{truth: truthFalse}, nil
		}
		return open(name + ":{" + db.EscapeTag(l.Values[0]) + "}"), nil
	case predicate.OpLike:
		if l.Values[0] == "" {
			return fragment{truth: truthTrue}, nil
		}
		return open(name + ":{*" + db.EscapeTag(l.Values[0]) + "*}"), nil
	case predicate.OpIn, predicate.OpContainsAny:
		if len(l.Values) == 0 {
			return fragment{truth: truthFalse}, nil
		}
		return open(name + ":{" + joinTags(l.Values, "|") + "}"), nil
	case predicate.OpContainsAll:
		switch len(l.Values) {
		case 0:
			return fragment{truth: truthTrue}, nil
		case 1:
			return open(name + ":{" + db.EscapeTag(l.Values[0]) + "}"), nil
		}
		clauses := make([]string, len(l.Values))
		for i, v := range l.Values {
			clauses[i] = name + ":{" + db.EscapeTag(v) + "}"
		}
		return open("(" + strings.Join(clauses, " ") + ")"), nil
	default:
		return fragment{}, fmt.Errorf("%s: unsupported operator %s", l.Attr, l.Op)
	}
}

func (c *compiler) field(a predicate.Attribute) (db.IndexField, error) {
	path := a.Path
	if a.Alias != "" {
		base, ok := c.joins[a.Alias]
		if !ok {
			return db.IndexField{}, fmt.Errorf("%w: %q", predicate.ErrUnknownAlias, a.Alias)
		}
		path = base + "." + a.Path
	}
	alias, ok := attributeFields[path]
	if !ok {
		return db.IndexField{}, fmt.Errorf("unknown attribute %q", path)
	}
	f, ok := c.index.Field(alias)
	if !ok {
		return db.IndexField{}, fmt.Errorf("attribute %q is not indexed", path)
	}
	return f, nil
}

// sortOrder maps a page sort onto a SORTABLE index field.
func sortOrder(s *page.Sort) (*db.SortOrder, error) {
	if s == nil {
		return nil, nil
	}
	field, ok := sortFields[s.Property]
	if !ok {
		return nil, fmt.Errorf("cannot sort by %q", s.Property)
	}
	return &db.SortOrder{Field: field, Desc: s.Direction == page.Desc}, nil
}

func joinTags(values []string, sep string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = db.EscapeTag(v)
	}
	return strings.Join(escaped, sep)
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
