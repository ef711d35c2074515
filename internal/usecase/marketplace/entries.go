package marketplace

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/predicate"
)

// Global slug prefixes per variant.
const (
	dataSlugPrefix = "data-project-"
	codeSlugPrefix = "code-project-"
)

// PrepareEntry publishes searchable as a marketplace entry owned by owner.
// Only code and data projects can become entries.
func (s *Service) PrepareEntry(
	ctx context.Context, searchable project.Searchable, owner access.Subject,
) (project.Project, error) {
	p, ok := searchable.(project.Project)
	if !ok {
		return project.Project{}, fmt.Errorf("%w: %T", domain.ErrUnsupportedVariant, searchable)
	}

	switch p.Variant() {
	case project.Data:
		p = p.WithGlobalSlug(dataSlugPrefix + p.Slug())
	case project.Code:
		p = p.WithGlobalSlug(codeSlugPrefix + p.Slug())
	default:
		return project.Project{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedVariant, p.Variant())
	}
	if p.OwnerID() == "" {
		p = p.WithOwnerID(owner.ID)
	}

	s.log(ctx).Info("Marketplace entry created",
		zap.String("project_id", p.ID()),
		zap.String("global_slug", p.GlobalSlug()),
		zap.String("owner_id", owner.ID),
	)
	return s.save(ctx, p)
}

// AssertEntry returns the stored entry for searchable, preparing one when none exists.
func (s *Service) AssertEntry(
	ctx context.Context, searchable project.Searchable, owner access.Subject,
) (project.Project, error) {
	existing, found, err := s.lookupEntry(ctx, searchable.ID())
	if err != nil {
		return project.Project{}, err
	}
	if found {
		return existing, nil
	}
	return s.PrepareEntry(ctx, searchable, owner)
}

// PublishEntry is AssertEntry on behalf of token's person. An existing entry the
// token cannot read is reported as not found and left untouched.
func (s *Service) PublishEntry(
	ctx context.Context, searchable project.Searchable, token *access.Token,
) (project.Project, error) {
	if token == nil || token.IsVisitor() {
		return project.Project{}, fmt.Errorf("publish entry: %w", domain.ErrUnauthorized)
	}
	existing, found, err := s.lookupEntry(ctx, searchable.ID())
	if err != nil {
		return project.Project{}, err
	}
	if !found {
		return s.PrepareEntry(ctx, searchable, token.Subject())
	}
	if !CanRead(token, existing) {
		return project.Project{}, fmt.Errorf("get entry %s: %w", searchable.ID(), domain.ErrNotFound)
	}
	return existing, nil
}

func (s *Service) lookupEntry(ctx context.Context, id string) (project.Project, bool, error) {
	existing, err := s.projects.Get(ctx, id)
	switch {
	case err == nil:
		return existing, true, nil
	case errors.Is(err, domain.ErrNotFound):
		return project.Project{}, false, nil
	default:
		return project.Project{}, false, fmt.Errorf("get entry %s: %w", id, err)
	}
}

// FindEntry loads an entry by id. Entries token cannot read are reported as not found.
func (s *Service) FindEntry(ctx context.Context, id string, token *access.Token) (project.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return project.Project{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	if !CanRead(token, p) {
		return project.Project{}, fmt.Errorf("get entry %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// FindEntriesForProjects returns the public page merged with the page of projects
// the caller holds at least GUEST access to. Each project appears once.
func (s *Service) FindEntriesForProjects(
	ctx context.Context, pageable page.Pageable, projects map[string]access.Level,
) ([]project.Project, error) {
	ids := access.AccessibleIDs(projects, access.Guest)

	accessible, err := s.selectWhere(ctx, pageable, func(b *predicate.Builder) {
		b.In(attrID, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("select accessible entries: %w", err)
	}
	public, err := s.selectWhere(ctx, pageable, func(b *predicate.Builder) {
		b.Equals(attrVisibility, string(project.Public))
	})
	if err != nil {
		return nil, fmt.Errorf("select public entries: %w", err)
	}

	seen := make(map[string]struct{}, len(public.Items())+len(accessible.Items()))
	out := make([]project.Project, 0, len(public.Items())+len(accessible.Items()))
	for _, list := range [][]project.Project{public.Items(), accessible.Items()} {
		for _, p := range list {
			if _, ok := seen[p.ID()]; ok {
				continue
			}
			seen[p.ID()] = struct{}{}
			out = append(out, p)
		}
	}
	return out, nil
}

// FindEntryBySlug finds a public entry by global slug, then one the caller can access.
func (s *Service) FindEntryBySlug(
	ctx context.Context, projects map[string]access.Level, slug string,
) (project.Project, error) {
	if slug == "" {
		return project.Project{}, fmt.Errorf("%w: slug is required", domain.ErrInvalidRequest)
	}
	first := page.Of(0, 1)
	ci := predicate.CaseSensitive(false)

	public, err := s.selectWhere(ctx, first, func(b *predicate.Builder) {
		b.Equals(attrVisibility, string(project.Public)).And().Equals("globalSlug", slug, ci)
	})
	if err != nil {
		return project.Project{}, fmt.Errorf("find public entry: %w", err)
	}
	if items := public.Items(); len(items) > 0 {
		return items[0], nil
	}

	ids := access.AccessibleIDs(projects, access.Guest)
	accessible, err := s.selectWhere(ctx, first, func(b *predicate.Builder) {
		b.In(attrID, ids).And().Equals("globalSlug", slug, ci)
	})
	if err != nil {
		return project.Project{}, fmt.Errorf("find accessible entry: %w", err)
	}
	if items := accessible.Items(); len(items) > 0 {
		return items[0], nil
	}
	return project.Project{}, domain.ErrNotFound
}

func (s *Service) selectWhere(
	ctx context.Context, pageable page.Pageable, where func(*predicate.Builder),
) (page.Page[project.Project], error) {
	b := newProjectBuilder(project.Generic)
	where(b)
	q, err := b.Build()
	if err != nil {
		return page.Page[project.Project]{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return s.projects.Select(ctx, q, pageable, false)
}
