package project

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/marketplace/internal/db"
	domproj "github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

const testPrefix = "mp:"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn      func(ctx context.Context, key, path string, data []byte) error
	jsonSetMultiFn func(ctx context.Context, items []db.JSONSetItem) error
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	searchListFn   func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	searchTextFn   func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)

	listQueries []*db.ListQuery
	textQueries []*db.TextQuery
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if m.jsonSetMultiFn != nil {
		return m.jsonSetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	m.listQueries = append(m.listQueries, q)
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.textQueries = append(m.textQueries, q)
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testPrefix), ms
}

func testProject(t *testing.T, id string) domproj.Project {
	t.Helper()
	finished := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := domproj.New(domproj.Params{
		ID:              id,
		Variant:         domproj.Code,
		Slug:            "image-resize",
		GlobalSlug:      "code-project-image-resize",
		Name:            "Image Resize",
		Description:     "Resizes images",
		Namespace:       "mlreef",
		Visibility:      domproj.Public,
		Tags:            []tag.Tag{tag.Reconstruct("5b0a1f4e-0c61-4d0c-8a7a-2f1b7a1e9c01", "vision", true, "")},
		OwnerID:         "owner-1",
		Stars:           []string{"p2", "p1"},
		ForksCount:      4,
		InputDataTypes:  []string{"IMAGE"},
		OutputDataTypes: []string{"IMAGE"},
		Processor: &domproj.Processor{
			Type: domproj.Operation,
			Version: &domproj.Version{
				ModelType:  "CNN",
				MLCategory: "Classification",
				FinishedAt: &finished,
			},
		},
	})
	if err != nil {
		t.Fatalf("build project: %v", err)
	}
	return p
}

// hit renders p as a FT.SEARCH list entry.
func hit(t *testing.T, p domproj.Project) db.SearchEntry {
	t.Helper()
	data, err := marshalProject(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return db.SearchEntry{Key: projectKey(testPrefix, p.ID()), Fields: map[string]string{"$": string(data)}}
}
