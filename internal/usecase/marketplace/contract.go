package marketplace

import (
	"context"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// ProjectRepository defines the storage contract for catalog entries.
type ProjectRepository interface {
	// Select runs a predicate query and returns one page. distinct must be set
	// when the query ranges over a multi-valued relation.
	Select(ctx context.Context, q predicate.Query, pageable page.Pageable, distinct bool) (page.Page[project.Project], error)
	// SelectAll runs a predicate query without paging.
	SelectAll(ctx context.Context, q predicate.Query) ([]project.Project, error)
	// FulltextSearch ranks the given ids against a term expression, best first.
	FulltextSearch(ctx context.Context, expr string, ids []string) ([]result.RankedID, error)
	Get(ctx context.Context, id string) (project.Project, error)
	Save(ctx context.Context, p project.Project) (project.Project, error)
}

// TagRepository reads the tag vocabulary.
type TagRepository interface {
	FindByNamesIgnoreCase(ctx context.Context, names []string) ([]tag.Tag, error)
}
