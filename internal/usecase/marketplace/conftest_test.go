package marketplace

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// --- Mocks ---

type mockProjects struct {
	selectFn     func(q predicate.Query, pageable page.Pageable) (page.Page[project.Project], error)
	selectAll    []project.Project
	selectAllErr error
	ranked       []result.RankedID
	rankedErr    error
	stored       map[string]project.Project

	selects      []predicate.Query
	distinct     []bool
	selectAlls   []predicate.Query
	fulltextExpr string
	fulltextIDs  []string
	fulltextN    int
	saves        int
}

func (m *mockProjects) Select(
	_ context.Context, q predicate.Query, pageable page.Pageable, distinct bool,
) (page.Page[project.Project], error) {
	m.selects = append(m.selects, q)
	m.distinct = append(m.distinct, distinct)
	if m.selectFn != nil {
		return m.selectFn(q, pageable)
	}
	return page.Empty[project.Project](pageable), nil
}

func (m *mockProjects) SelectAll(_ context.Context, q predicate.Query) ([]project.Project, error) {
	m.selectAlls = append(m.selectAlls, q)
	return m.selectAll, m.selectAllErr
}

func (m *mockProjects) FulltextSearch(_ context.Context, expr string, ids []string) ([]result.RankedID, error) {
	m.fulltextN++
	m.fulltextExpr = expr
	m.fulltextIDs = ids
	return m.ranked, m.rankedErr
}

func (m *mockProjects) Get(_ context.Context, id string) (project.Project, error) {
	if p, ok := m.stored[id]; ok {
		return p, nil
	}
	return project.Project{}, domain.ErrNotFound
}

func (m *mockProjects) Save(_ context.Context, p project.Project) (project.Project, error) {
	m.saves++
	if m.stored == nil {
		m.stored = map[string]project.Project{}
	}
	m.stored[p.ID()] = p
	return p, nil
}

type mockTags struct {
	tags  []tag.Tag
	err   error
	calls [][]string
}

func (m *mockTags) FindByNamesIgnoreCase(_ context.Context, names []string) ([]tag.Tag, error) {
	m.calls = append(m.calls, names)
	if m.err != nil {
		return nil, m.err
	}
	var out []tag.Tag
	for _, t := range m.tags {
		for _, n := range names {
			if t.HasName(n) {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// --- Fixtures ---

const (
	pubID   = "9d5c2b1a-0000-4000-8000-000000000001"
	privID  = "9d5c2b1a-0000-4000-8000-000000000002"
	otherID = "9d5c2b1a-0000-4000-8000-000000000003"
	nlpID   = "9d5c2b1a-0000-4000-8000-0000000000a1"
	cvID    = "9d5c2b1a-0000-4000-8000-0000000000a2"
)

func newTestService(t *testing.T) (*Service, *mockProjects, *mockTags) {
	t.Helper()
	projects := &mockProjects{}
	tags := &mockTags{tags: []tag.Tag{
		tag.Reconstruct(nlpID, "NLP", true, ""),
		tag.Reconstruct(cvID, "Computer Vision", true, ""),
	}}
	return New(projects, tags, zap.NewNop()), projects, tags
}

func newProject(t *testing.T, id string, variant project.Variant, visibility project.Visibility) project.Project {
	t.Helper()
	p, err := project.New(project.Params{
		ID:         id,
		Variant:    variant,
		Slug:       "slug-" + id[len(id)-4:],
		Name:       "Project " + id[len(id)-4:],
		Visibility: visibility,
	})
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	return p
}

// leaves collects every leaf of q.
func leaves(q predicate.Query) []*predicate.Leaf {
	var out []*predicate.Leaf
	predicate.Walk(q.Root(), func(n predicate.Node) bool {
		if l, ok := n.(*predicate.Leaf); ok {
			out = append(out, l)
		}
		return true
	})
	return out
}

func findLeaf(q predicate.Query, path string) *predicate.Leaf {
	for _, l := range leaves(q) {
		if l.Attr.Path == path {
			return l
		}
	}
	return nil
}

func visibilityValues(q predicate.Query) map[string]bool {
	out := map[string]bool{}
	for _, l := range leaves(q) {
		if l.Attr.Path == attrVisibility {
			out[l.Values[0]] = true
		}
	}
	return out
}
