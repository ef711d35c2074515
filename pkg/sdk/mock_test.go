package marketplace

import (
	"context"

	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
	healthuc "github.com/kailas-cloud/marketplace/internal/usecase/health"
)

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	searchFn     func(ctx context.Context, req *request.SearchRequest, p page.Pageable, token *access.Token) (page.Page[project.Project], error)
	textFn       func(ctx context.Context, p page.Pageable, query string, conjunctive bool, token *access.Token) ([]result.SearchResult, error)
	findFn       func(ctx context.Context, id string, token *access.Token) (project.Project, error)
	entriesFn    func(ctx context.Context, p page.Pageable, projects map[string]access.Level) ([]project.Project, error)
	bySlugFn     func(ctx context.Context, projects map[string]access.Level, slug string) (project.Project, error)
	publishFn    func(ctx context.Context, s project.Searchable, token *access.Token) (project.Project, error)
	addStarFn    func(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)
	removeStarFn func(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)
	addTagsFn    func(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)
	defineTagsFn func(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)
	resolveFn    func(ctx context.Context, names []string) ([]tag.Tag, error)
}

func (m *mockCatalogUC) SearchProjects(
	ctx context.Context, req *request.SearchRequest, p page.Pageable, token *access.Token,
) (page.Page[project.Project], error) {
	return m.searchFn(ctx, req, p, token)
}

func (m *mockCatalogUC) PerformSearchByText(
	ctx context.Context, p page.Pageable, query string, conjunctive bool, token *access.Token,
) ([]result.SearchResult, error) {
	return m.textFn(ctx, p, query, conjunctive, token)
}

func (m *mockCatalogUC) FindEntry(ctx context.Context, id string, token *access.Token) (project.Project, error) {
	return m.findFn(ctx, id, token)
}

func (m *mockCatalogUC) FindEntriesForProjects(
	ctx context.Context, p page.Pageable, projects map[string]access.Level,
) ([]project.Project, error) {
	return m.entriesFn(ctx, p, projects)
}

func (m *mockCatalogUC) FindEntryBySlug(
	ctx context.Context, projects map[string]access.Level, slug string,
) (project.Project, error) {
	return m.bySlugFn(ctx, projects, slug)
}

func (m *mockCatalogUC) PublishEntry(
	ctx context.Context, s project.Searchable, token *access.Token,
) (project.Project, error) {
	return m.publishFn(ctx, s, token)
}

func (m *mockCatalogUC) AddStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error) {
	return m.addStarFn(ctx, p, person)
}

func (m *mockCatalogUC) RemoveStar(
	ctx context.Context, p project.Project, person access.Subject,
) (project.Project, error) {
	return m.removeStarFn(ctx, p, person)
}

func (m *mockCatalogUC) AddTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error) {
	return m.addTagsFn(ctx, p, tags)
}

func (m *mockCatalogUC) DefineTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error) {
	return m.defineTagsFn(ctx, p, tags)
}

func (m *mockCatalogUC) ResolveTags(ctx context.Context, names []string) ([]tag.Tag, error) {
	return m.resolveFn(ctx, names)
}

// --- repositories behind a real catalog use case ---

type memProjects struct {
	stored map[string]project.Project
	saves  int
}

func (m *memProjects) Select(
	_ context.Context, _ predicate.Query, pageable page.Pageable, _ bool,
) (page.Page[project.Project], error) {
	return page.Empty[project.Project](pageable), nil
}

func (m *memProjects) SelectAll(_ context.Context, _ predicate.Query) ([]project.Project, error) {
	return nil, nil
}

func (m *memProjects) FulltextSearch(_ context.Context, _ string, _ []string) ([]result.RankedID, error) {
	return nil, nil
}

func (m *memProjects) Get(_ context.Context, id string) (project.Project, error) {
	if p, ok := m.stored[id]; ok {
		return p, nil
	}
	return project.Project{}, ErrNotFound
}

func (m *memProjects) Save(_ context.Context, p project.Project) (project.Project, error) {
	m.saves++
	m.stored[p.ID()] = p
	return p, nil
}

type noTags struct{}

func (noTags) FindByNamesIgnoreCase(_ context.Context, _ []string) ([]tag.Tag, error) { return nil, nil }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- indexer mock ---

type mockIndexer struct {
	name  string
	err   error
	calls int
}

func (m *mockIndexer) EnsureIndex(_ context.Context) error {
	m.calls++
	return m.err
}

func (m *mockIndexer) IndexName() string { return m.name }

// --- helpers ---

const (
	testPersonID  = "3b8f6a52-1d7e-4c90-a4f2-6e1d0b9c7a11"
	testProjectID = "5d2c1f00-8a1b-4c3d-9e4f-000000000001"
)

func testClient(catalog catalogUseCase) *Client {
	return &Client{catalog: catalog}
}

func testProject(visibility project.Visibility, ownerID string) project.Project {
	return project.Reconstruct(project.Params{
		ID:         testProjectID,
		Variant:    project.Code,
		Slug:       "image-resize",
		Name:       "Image Resize",
		Visibility: visibility,
		OwnerID:    ownerID,
	})
}
