package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/marketplace/internal/db"
	"github.com/kailas-cloud/marketplace/internal/domain"
	domproj "github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
)

const (
	defaultBatchSize = 500
	// fulltextChunk bounds the id set embedded in one full-text query.
	fulltextChunk = 512
)

// store is the consumer interface for projects (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/marketplace.ProjectRepository over JSON documents and an FT index.
type Repo struct {
	store     store
	prefix    string
	index     *db.IndexDefinition
	batchSize int
}

// New creates a project repository. prefix namespaces keys and the index name.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, index: buildIndex(prefix), batchSize: defaultBatchSize}
}

// WithBatchSize sets the page size SelectAll uses to drain results.
func (r *Repo) WithBatchSize(n int) *Repo {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// IndexName returns the name of the project search index.
func (r *Repo) IndexName() string { return r.index.Name }

// EnsureIndex creates the project index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.index.Name)
	if err != nil {
		return fmt.Errorf("check project index: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, r.index); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create project index: %w", err)
	}
	return nil
}

// Get loads a project by id.
func (r *Repo) Get(ctx context.Context, id string) (domproj.Project, error) {
	data, err := r.store.JSONGet(ctx, projectKey(r.prefix, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domproj.Project{}, domain.ErrNotFound
		}
		return domproj.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return unmarshalProject(data)
}

// Save writes the whole project document (last write wins).
func (r *Repo) Save(ctx context.Context, p domproj.Project) (domproj.Project, error) {
	data, err := marshalProject(p)
	if err != nil {
		return domproj.Project{}, err
	}
	if err := r.store.JSONSet(ctx, projectKey(r.prefix, p.ID()), "$", data); err != nil {
		return domproj.Project{}, fmt.Errorf("save project %s: %w", p.ID(), err)
	}
	return p, nil
}

// SaveAll writes projects in one pipeline.
func (r *Repo) SaveAll(ctx context.Context, projects []domproj.Project) error {
	if len(projects) == 0 {
		return nil
	}
	items := make([]db.JSONSetItem, len(projects))
	for i, p := range projects {
		data, err := marshalProject(p)
		if err != nil {
			return err
		}
		items[i] = db.JSONSetItem{Key: projectKey(r.prefix, p.ID()), Path: "$", Data: data}
	}
	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	return nil
}

// Select runs q and returns one page. A query that ranges over a multi-valued
// relation must ask for distinct rows.
func (r *Repo) Select(
	ctx context.Context, q predicate.Query, pageable page.Pageable, distinct bool,
) (page.Page[domproj.Project], error) {
	if q.FansOut() && !distinct {
		return page.Page[domproj.Project]{}, fmt.Errorf(
			"%w: query over a multi-valued relation requires distinct rows", domain.ErrInvalidRequest)
	}
	c, err := compile(r.index, q)
	if err != nil {
		return page.Page[domproj.Project]{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if c.empty {
		return page.Empty[domproj.Project](pageable), nil
	}
	sortBy, err := sortOrder(pageable.Sort())
	if err != nil {
		return page.Page[domproj.Project]{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.index.Name,
		Query:     c.query,
		Offset:    pageable.Offset(),
		Limit:     pageable.Size(),
		SortBy:    sortBy,
	})
	if err != nil {
		return page.Page[domproj.Project]{}, fmt.Errorf("select projects: %w", err)
	}
	items, err := decodeEntries(res.Entries)
	if err != nil {
		return page.Page[domproj.Project]{}, err
	}
	return page.New(items, res.Total, pageable), nil
}

// SelectAll runs q without paging, draining the index in id order.
func (r *Repo) SelectAll(ctx context.Context, q predicate.Query) ([]domproj.Project, error) {
	c, err := compile(r.index, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if c.empty {
		return nil, nil
	}

	var out []domproj.Project
	for offset := 0; ; offset += r.batchSize {
		res, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName: r.index.Name,
			Query:     c.query,
			Offset:    offset,
			Limit:     r.batchSize,
			SortBy:    &db.SortOrder{Field: fieldID},
		})
		if err != nil {
			return nil, fmt.Errorf("select projects: %w", err)
		}
		items, err := decodeEntries(res.Entries)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(res.Entries) < r.batchSize || offset+r.batchSize >= res.Total {
			return out, nil
		}
	}
}

// FulltextSearch ranks the projects in ids against expr, a list of terms joined
// by " & " (all terms) or " | " (any term). Results come back in descending rank.
func (r *Repo) FulltextSearch(ctx context.Context, expr string, ids []string) ([]result.RankedID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	text, err := textQuery(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if text == "" {
		return nil, nil
	}

	var ranked []result.RankedID
	for start := 0; start < len(ids); start += fulltextChunk {
		chunk := ids[start:min(start+fulltextChunk, len(ids))]
		res, err := r.store.SearchText(ctx, &db.TextQuery{
			IndexName:    r.index.Name,
			Query:        "@" + fieldID + ":{" + joinTags(chunk, "|") + "} " + text,
			TopK:         len(chunk),
			ReturnFields: []string{fieldID},
		})
		if err != nil {
			return nil, fmt.Errorf("fulltext search: %w", err)
		}
		for _, e := range res.Entries {
			id := e.Fields[fieldID]
			if id == "" {
				id = strings.TrimPrefix(e.Key, keyPrefix(r.prefix))
			}
			ranked = append(ranked, result.RankedID{ID: id, Rank: e.Score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank > ranked[j].Rank })
	return ranked, nil
}

// textQuery turns "a & b" / "a | b" into an escaped FT term group.
func textQuery(expr string) (string, error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return "", nil
	}

	var terms []string
	var op string
	for i, f := range fields {
		if i%2 == 1 {
			if f != "&" && f != "|" {
				return "", fmt.Errorf("expected & or | between terms, got %q", f)
			}
			if op != "" && op != f {
				return "", errors.New("text expression mixes & and |")
			}
			op = f
			continue
		}
		terms = append(terms, db.EscapeText(f))
	}
	if len(fields)%2 == 0 {
		return "", errors.New("text expression ends with an operator")
	}

	sep := " "
	if op == "|" {
		sep = "|"
	}
	return "(" + strings.Join(terms, sep) + ")", nil
}

func decodeEntries(entries []db.SearchEntry) ([]domproj.Project, error) {
	out := make([]domproj.Project, 0, len(entries))
	for _, e := range entries {
		raw, ok := e.Fields["$"]
		if !ok {
			return nil, fmt.Errorf("search entry %s has no document", e.Key)
		}
		p, err := unmarshalProject([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, p)
	}
	return out, nil
}
