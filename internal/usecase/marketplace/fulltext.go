package marketplace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
)

var quoteStripper = strings.NewReplacer(`"`, " ", `'`, " ")

// sanitizeQuery strips quotes and joins the remaining words with " & " (conjunctive)
// or " | ". Tom's "data" becomes Tom & s & data.
func sanitizeQuery(query string, conjunctive bool) string {
	sep := " | "
	if conjunctive {
		sep = " & "
	}
	return strings.Join(strings.Fields(quoteStripper.Replace(query)), sep)
}

// PerformSearchByText ranks the projects visible to the caller against a free-text query.
//
// Ranking is scoped to the visible projects the engine matched. pageable does not
// re-window the ranked list.
func (s *Service) PerformSearchByText(
	ctx context.Context, pageable page.Pageable, query string, conjunctive bool, token *access.Token,
) ([]result.SearchResult, error) {
	start := time.Now()
	log := s.log(ctx)

	if len(query) > request.MaxQueryLength {
		return nil, fmt.Errorf("%w: query too long (max %d)", domain.ErrInvalidRequest, request.MaxQueryLength)
	}

	expr := sanitizeQuery(query, conjunctive)
	if expr == "" {
		s.observe(kindText, "empty", start, 0)
		return []result.SearchResult{}, nil
	}

	b := newProjectBuilder(project.Generic)
	addAccessFragment(b, nil, token)
	q, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	visible, err := s.projects.SelectAll(ctx, q)
	if err != nil {
		s.observe(kindText, "error", start, 0)
		return nil, fmt.Errorf("select visible projects: %w", err)
	}
	byID := make(map[string]project.Project, len(visible))
	ids := make([]string, 0, len(visible))
	for _, p := range visible {
		if _, ok := byID[p.ID()]; ok {
			continue
		}
		byID[p.ID()] = p
		ids = append(ids, p.ID())
	}

	if len(ids) == 0 {
		s.observe(kindText, "empty", start, 0)
		return []result.SearchResult{}, nil
	}

	ranked, err := s.projects.FulltextSearch(ctx, expr, ids)
	if err != nil {
		s.observe(kindText, "error", start, 0)
		return nil, fmt.Errorf("fulltext search: %w", err)
	}

	results := make([]result.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		p, ok := byID[r.ID]
		if !ok {
			continue
		}
		results = append(results, result.New(p, r.Rank))
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Rank() > results[j].Rank() })

	s.observe(kindText, "ok", start, len(results))
	log.Info("Fulltext search completed",
		zap.Int("visible", len(ids)),
		zap.Int("ranked", len(ranked)),
		zap.Int("results", len(results)),
		zap.Int("page", pageable.Number()),
		zap.Int("page_size", pageable.Size()),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}
