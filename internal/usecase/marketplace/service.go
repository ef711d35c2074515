package marketplace

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/logger"
	"github.com/kailas-cloud/marketplace/internal/metrics"
)

// Join aliases declared on every project query.
const (
	processorAlias = "processor"
	versionAlias   = "version"
)

const (
	kindFiltered = "filtered"
	kindText     = "text"
)

// Short-circuit reasons.
const (
	reasonTagsAll = "tags_all_unresolved"
	reasonTagsAny = "tags_any_unresolved"
)

// Service searches, ranks and curates marketplace entries.
type Service struct {
	projects ProjectRepository
	tags     *tagResolver
	logger   *zap.Logger
}

// New creates a marketplace service.
func New(projects ProjectRepository, tags TagRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{projects: projects, tags: &tagResolver{repo: tags}, logger: logger}
}

// searchPlan is decided before storage is touched: either a query to run or a
// reason why nothing can match.
type searchPlan struct {
	query       predicate.Query
	emptyReason string
}

func (p searchPlan) knownEmpty() bool { return p.emptyReason != "" }

// SearchProjects finds one page of projects matching req that the caller may see.
func (s *Service) SearchProjects(
	ctx context.Context, req *request.SearchRequest, pageable page.Pageable, token *access.Token,
) (page.Page[project.Project], error) {
	start := time.Now()
	log := s.log(ctx)

	if req == nil {
		req = &request.SearchRequest{}
	}
	if err := req.Validate(); err != nil {
		return page.Page[project.Project]{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	plan, err := s.plan(ctx, req, token)
	if err != nil {
		s.observe(kindFiltered, "error", start, 0)
		return page.Page[project.Project]{}, err
	}
	if plan.knownEmpty() {
		log.Debug("Search short-circuited", zap.String("reason", plan.emptyReason))
		metrics.SearchShortCircuitsTotal.WithLabelValues(plan.emptyReason).Inc()
		s.observe(kindFiltered, "empty", start, 0)
		return page.Empty[project.Project](pageable), nil
	}

	res, err := s.projects.Select(ctx, plan.query, pageable, true)
	if err != nil {
		s.observe(kindFiltered, "error", start, 0)
		return page.Page[project.Project]{}, fmt.Errorf("select projects: %w", err)
	}

	s.observe(kindFiltered, "ok", start, len(res.Items()))
	log.Debug("Search completed",
		zap.Stringer("query", plan.query),
		zap.Int("page", pageable.Number()),
		zap.Int("total", res.Total()),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// plan builds the predicate tree for req. Tag lookups may decide the search is known-empty.
func (s *Service) plan(ctx context.Context, req *request.SearchRequest, token *access.Token) (searchPlan, error) {
	b := newProjectBuilder(req.TargetVariant())
	addAccessFragment(b, req.Visibility, token)

	ci := predicate.CaseSensitive(false)

	if req.GlobalSlug != nil {
		b.And().Like("globalSlug", *req.GlobalSlug, ci)
	}
	if req.GlobalSlugExact != nil {
		b.And().Equals("globalSlug", *req.GlobalSlugExact, ci)
	}
	if req.Slug != nil {
		b.And().Like("slug", *req.Slug, ci)
	}
	if req.SlugExact != nil {
		b.And().Equals("slug", *req.SlugExact, ci)
	}
	if req.MaxStars != nil {
		b.And().LessOrEqual("starsCount", float64(*req.MaxStars))
	}
	if req.MinStars != nil {
		b.And().GreaterOrEqual("starsCount", float64(*req.MinStars))
	}
	if pt := req.TargetProcessorType(); pt != nil {
		b.And().Equals("type", string(*pt), predicate.On(processorAlias))
	}
	if req.InputDataTypes != nil {
		b.And().ContainsAll("inputDataTypes", req.InputDataTypes)
	}
	if req.OutputDataTypes != nil {
		b.And().ContainsAll("outputDataTypes", req.OutputDataTypes)
	}
	if req.InputDataTypesOr != nil {
		b.And().ContainsAny("inputDataTypes", req.InputDataTypesOr)
	}
	if req.OutputDataTypesOr != nil {
		b.And().ContainsAny("outputDataTypes", req.OutputDataTypesOr)
	}
	if len(req.Tags) > 0 {
		m, err := s.tags.resolveAll(ctx, req.Tags)
		if err != nil {
			return searchPlan{}, err
		}
		if m.empty {
			return searchPlan{emptyReason: reasonTagsAll}, nil
		}
		if len(m.ids) > 0 {
			b.And().ContainsAll("tags.id", m.ids)
		}
		for _, ids := range m.alternatives {
			b.And().ContainsAny("tags.id", ids)
		}
	}
	if len(req.TagsOr) > 0 {
		m, err := s.tags.resolveAny(ctx, req.TagsOr)
		if err != nil {
			return searchPlan{}, err
		}
		if m.empty {
			return searchPlan{emptyReason: reasonTagsAny}, nil
		}
		b.And().ContainsAny("tags.id", m.ids)
	}
	if req.MinForksCount != nil {
		b.And().GreaterOrEqual("forksCount", float64(*req.MinForksCount))
	}
	if req.MaxForksCount != nil {
		b.And().LessOrEqual("forksCount", float64(*req.MaxForksCount))
	}
	if req.ModelTypeOr != nil {
		b.And().In("modelType", req.ModelTypeOr, predicate.On(versionAlias), ci)
	}
	if req.MLCategoryOr != nil {
		b.And().In("mlCategory", req.MLCategoryOr, predicate.On(versionAlias), ci)
	}
	if req.OwnerIDsOr != nil {
		b.And().In("ownerId", req.OwnerIDsOr)
	}
	if req.Name != nil {
		b.And().Like("name", *req.Name, ci)
	}
	if req.NameExact != nil {
		b.And().Equals("name", *req.NameExact, ci)
	}
	if req.Namespace != nil {
		b.And().Like("namespace", *req.Namespace, ci)
	}
	if req.NamespaceExact != nil {
		b.And().Equals("namespace", *req.NamespaceExact, ci)
	}
	if req.Published != nil {
		if *req.Published {
			b.And().IsNotNull("publishingInfo.finishedAt", predicate.On(versionAlias))
		} else {
			b.And().IsNull("publishingInfo.finishedAt", predicate.On(versionAlias))
		}
	}

	q, err := b.Build()
	if err != nil {
		return searchPlan{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return searchPlan{query: q}, nil
}

// newProjectBuilder starts a tree with the processor and version joins declared.
func newProjectBuilder(v project.Variant) *predicate.Builder {
	return predicate.NewBuilder(v).
		Join("dataProcessor", "", processorAlias).
		Join("processorVersion", processorAlias, versionAlias)
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func (s *Service) observe(kind, outcome string, start time.Time, n int) {
	metrics.SearchRequestsTotal.WithLabelValues(kind, outcome).Inc()
	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if outcome != "error" {
		metrics.SearchResultsReturned.WithLabelValues(kind).Observe(float64(n))
	}
}
