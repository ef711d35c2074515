package marketplace

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

func ptr[T any](v T) *T { return &v }

func memberToken() *access.Token {
	return access.NewToken(access.Subject{ID: "person-1", Name: "Ada"}, map[string]access.Level{
		privID:  access.Developer,
		otherID: access.None,
	})
}

// --- Access overlay ---

func TestSearchProjects_VisitorSeesPublicOnly(t *testing.T) {
	for name, token := range map[string]*access.Token{
		"anonymous": nil,
		"visitor":   access.NewVisitorToken(),
	} {
		t.Run(name, func(t *testing.T) {
			svc, projects, _ := newTestService(t)
			req := &request.SearchRequest{Visibility: ptr(project.Private)}

			if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), token); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			vis := visibilityValues(projects.selects[0])
			if !vis["PUBLIC"] || vis["PRIVATE"] {
				t.Fatalf("expected PUBLIC only, got %v in %s", vis, projects.selects[0])
			}
		})
	}
}

func TestSearchProjects_PrivateRestrictsToAccessibleIDs(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{Visibility: ptr(project.Private)}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), memberToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := projects.selects[0]
	vis := visibilityValues(q)
	if !vis["PRIVATE"] || vis["PUBLIC"] {
		t.Fatalf("expected PRIVATE only, got %v", vis)
	}
	ids := findLeaf(q, attrID)
	if ids == nil || ids.Op != predicate.OpIn || !slices.Equal(ids.Values, []string{privID}) {
		t.Fatalf("expected id IN [%s], got %v", privID, ids)
	}
}

func TestSearchProjects_UnspecifiedVisibilityCombinesScopes(t *testing.T) {
	svc, projects, _ := newTestService(t)

	if _, err := svc.SearchProjects(context.Background(), &request.SearchRequest{}, page.Of(0, 10), memberToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := projects.selects[0]
	g, ok := q.Root().(*predicate.Group)
	if !ok || g.Kind != predicate.Or {
		t.Fatalf("expected OR root, got %s", q)
	}
	vis := visibilityValues(q)
	if !vis["PRIVATE"] || !vis["PUBLIC"] {
		t.Fatalf("expected both scopes, got %v", vis)
	}
}

func TestSearchProjects_AccessFragmentIsOutermost(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{Slug: ptr("img"), MinStars: ptr(2)}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), memberToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, ok := projects.selects[0].Root().(*predicate.Group)
	if !ok || g.Kind != predicate.And || len(g.Children) != 3 {
		t.Fatalf("expected AND of fragment and two filters, got %s", projects.selects[0])
	}
	if inner, ok := g.Children[0].(*predicate.Group); !ok || inner.Kind != predicate.Or {
		t.Fatalf("expected access fragment first, got %s", g.Children[0])
	}
}

// --- Tags ---

func TestSearchProjects_TagsAllResolved(t *testing.T) {
	svc, projects, tags := newTestService(t)
	req := &request.SearchRequest{Tags: []string{"nlp", "NLP", "computer vision"}}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags.calls) != 1 || len(tags.calls[0]) != 2 {
		t.Fatalf("expected one lookup of 2 folded names, got %v", tags.calls)
	}
	l := findLeaf(projects.selects[0], "tags.id")
	if l == nil || l.Op != predicate.OpContainsAll || len(l.Values) != 2 {
		t.Fatalf("expected ContainsAll over 2 tag ids, got %v", l)
	}
	if !projects.distinct[0] {
		t.Fatal("search must request distinct rows")
	}
}

func TestSearchProjects_TagsAllMissShortCircuits(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{Tags: []string{"nlp", "unknown"}}

	got, err := svc.SearchProjects(context.Background(), req, page.Of(1, 10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total() != 0 || len(got.Items()) != 0 || got.Pageable().Number() != 1 {
		t.Fatalf("expected empty page 1, got total=%d", got.Total())
	}
	if len(projects.selects) != 0 {
		t.Fatal("no query may run for a known-empty plan")
	}
}

func TestSearchProjects_BlankTagNameShortCircuits(t *testing.T) {
	tests := []struct {
		name string
		tags []string
	}{
		{"only blank", []string{" "}},
		{"blank among known", []string{"nlp", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, projects, tags := newTestService(t)
			req := &request.SearchRequest{Tags: tt.tags}

			got, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Total() != 0 || len(got.Items()) != 0 {
				t.Fatalf("expected empty page, got total=%d", got.Total())
			}
			if len(projects.selects) != 0 || len(tags.calls) != 0 {
				t.Fatalf("expected no storage calls, got selects=%d lookups=%d", len(projects.selects), len(tags.calls))
			}
		})
	}
}

func TestSearchProjects_TagsAllCaseVariantsMatchEither(t *testing.T) {
	const nlpLowerID = "9d5c2b1a-0000-4000-8000-0000000000a3"
	svc, projects, tags := newTestService(t)
	tags.tags = append(tags.tags, tag.Reconstruct(nlpLowerID, "nlp", false, "owner-9"))
	req := &request.SearchRequest{Tags: []string{"nlp", "computer vision"}}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects.selects) != 1 {
		t.Fatalf("expected one query, got %d", len(projects.selects))
	}

	var all, anyOf *predicate.Leaf
	for _, l := range leaves(projects.selects[0]) {
		if l.Attr.Path != "tags.id" {
			continue
		}
		switch l.Op {
		case predicate.OpContainsAll:
			all = l
		case predicate.OpContainsAny:
			anyOf = l
		}
	}
	if all == nil || len(all.Values) != 1 || all.Values[0] != cvID {
		t.Fatalf("expected ContainsAll over the computer vision tag, got %v", all)
	}
	if anyOf == nil || len(anyOf.Values) != 2 {
		t.Fatalf("expected ContainsAny over both nlp tags, got %v", anyOf)
	}
}

func TestSearchProjects_TagsOrAllMissShortCircuits(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{TagsOr: []string{"unknown", "other"}}

	got, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total() != 0 || len(projects.selects) != 0 {
		t.Fatalf("expected known-empty, total=%d selects=%d", got.Total(), len(projects.selects))
	}
}

func TestSearchProjects_TagsOrPartialMatch(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{TagsOr: []string{"unknown", "nlp"}}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l := findLeaf(projects.selects[0], "tags.id")
	if l == nil || l.Op != predicate.OpContainsAny || !slices.Equal(l.Values, []string{nlpID}) {
		t.Fatalf("expected ContainsAny [%s], got %v", nlpID, l)
	}
}

func TestSearchProjects_EmptyTagListIsAbsent(t *testing.T) {
	svc, projects, tags := newTestService(t)
	req := &request.SearchRequest{Tags: []string{}, TagsOr: []string{}}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags.calls) != 0 {
		t.Fatal("empty tag lists must not be looked up")
	}
	if findLeaf(projects.selects[0], "tags.id") != nil {
		t.Fatal("empty tag lists must not constrain the query")
	}
}

func TestSearchProjects_TagLookupError(t *testing.T) {
	svc, projects, tags := newTestService(t)
	tags.err = errors.New("connection lost")

	_, err := svc.SearchProjects(context.Background(), &request.SearchRequest{Tags: []string{"nlp"}}, page.Of(0, 10), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(projects.selects) != 0 {
		t.Fatal("no query may run after a failed lookup")
	}
}

// --- Field mapping ---

func TestSearchProjects_VariantAndProcessorFromSearchableType(t *testing.T) {
	svc, projects, _ := newTestService(t)
	ctx := context.Background()

	st := request.SearchableOperation
	if _, err := svc.SearchProjects(ctx, &request.SearchRequest{SearchableType: &st}, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := projects.selects[0]
	if q.Variant() != project.Generic {
		t.Errorf("expected generic variant, got %s", q.Variant())
	}
	l := findLeaf(q, "type")
	if l == nil || l.Attr.Alias != processorAlias || l.Values[0] != "OPERATION" {
		t.Fatalf("expected processor type OPERATION, got %v", l)
	}

	st = request.SearchableData
	if _, err := svc.SearchProjects(ctx, &request.SearchRequest{SearchableType: &st}, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := projects.selects[1].Variant(); v != project.Data {
		t.Errorf("expected data variant, got %s", v)
	}
}

func TestSearchProjects_FieldPredicates(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{
		GlobalSlugExact:   ptr("code-project-x"),
		MaxStars:          ptr(9),
		InputDataTypes:    []string{"IMAGE"},
		OutputDataTypesOr: []string{"TEXT", "JSON"},
		MinForksCount:     ptr(1),
		ModelTypeOr:       []string{"cnn"},
		OwnerIDsOr:        []string{"owner-1"},
		NamespaceExact:    ptr("MLReef"),
		Published:         ptr(false),
	}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := projects.selects[0]

	checks := []struct {
		path          string
		op            predicate.Operator
		alias         string
		caseSensitive bool
	}{
		{"globalSlug", predicate.OpEquals, "", false},
		{"starsCount", predicate.OpLessOrEqual, "", true},
		{"inputDataTypes", predicate.OpContainsAll, "", true},
		{"outputDataTypes", predicate.OpContainsAny, "", true},
		{"forksCount", predicate.OpGreaterOrEqual, "", true},
		{"modelType", predicate.OpIn, versionAlias, false},
		{"ownerId", predicate.OpIn, "", true},
		{"namespace", predicate.OpEquals, "", false},
		{"publishingInfo.finishedAt", predicate.OpIsNull, versionAlias, true},
	}
	for _, c := range checks {
		l := findLeaf(q, c.path)
		if l == nil {
			t.Errorf("%s: missing predicate in %s", c.path, q)
			continue
		}
		if l.Op != c.op || l.Attr.Alias != c.alias || l.CaseSensitive != c.caseSensitive {
			t.Errorf("%s: got %s (alias %q)", c.path, l, l.Attr.Alias)
		}
	}
	if l := findLeaf(q, "starsCount"); l != nil && l.Number != 9 {
		t.Errorf("maxStars = %v", l.Number)
	}
}

func TestSearchProjects_InvalidRequest(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{MinStars: ptr(5), MaxStars: ptr(1)}

	_, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if len(projects.selects) != 0 {
		t.Fatal("invalid requests must not reach storage")
	}
}

func TestSearchProjects_EmptyTextFiltersAreNotRejected(t *testing.T) {
	svc, projects, _ := newTestService(t)
	req := &request.SearchRequest{SlugExact: ptr(""), Slug: ptr("")}

	if _, err := svc.SearchProjects(context.Background(), req, page.Of(0, 10), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects.selects) != 1 {
		t.Fatalf("expected one query, got %d", len(projects.selects))
	}
	for _, op := range []predicate.Operator{predicate.OpEquals, predicate.OpLike} {
		found := false
		for _, l := range leaves(projects.selects[0]) {
			if l.Attr.Path == "slug" && l.Op == op && l.Values[0] == "" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected an empty slug %s leaf", op)
		}
	}
}

func TestSearchProjects_RepositoryError(t *testing.T) {
	svc, projects, _ := newTestService(t)
	projects.selectFn = func(_ predicate.Query, _ page.Pageable) (page.Page[project.Project], error) {
		return page.Page[project.Project]{}, errors.New("boom")
	}

	if _, err := svc.SearchProjects(context.Background(), nil, page.Of(0, 10), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchProjects_ReturnsRepositoryPage(t *testing.T) {
	svc, projects, _ := newTestService(t)
	want := []project.Project{newProject(t, pubID, project.Code, project.Public)}
	projects.selectFn = func(_ predicate.Query, p page.Pageable) (page.Page[project.Project], error) {
		return page.New(want, 41, p), nil
	}

	got, err := svc.SearchProjects(context.Background(), nil, page.Of(2, 20), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total() != 41 || got.TotalPages() != 3 || got.Items()[0].ID() != pubID {
		t.Fatalf("unexpected page: total=%d pages=%d", got.Total(), got.TotalPages())
	}
}
