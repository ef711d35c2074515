package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	marketplaceuc "github.com/kailas-cloud/marketplace/internal/usecase/marketplace"
)

// Session runs catalog operations on behalf of one caller.
type Session struct {
	caller Caller
	token  *access.Token
	svc    catalogUseCase
	obs    *observer
}

// Search returns one page of the projects matching req that the caller may see.
func (s *Session) Search(ctx context.Context, req *SearchRequest, pageable Pageable) (_ ProjectPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err) }()

	found, err := s.svc.SearchProjects(ctx, req, pageable, s.token)
	if err != nil {
		return ProjectPage{}, fmt.Errorf("search projects: %w", err)
	}
	return found, nil
}

// SearchText ranks visible projects against a free-text query. With conjunctive
// set every term must match; otherwise any term does.
func (s *Session) SearchText(
	ctx context.Context, query string, conjunctive bool, pageable Pageable,
) (_ []RankedProject, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search_text", start, err) }()

	ranked, err := s.svc.PerformSearchByText(ctx, pageable, query, conjunctive, s.token)
	if err != nil {
		return nil, fmt.Errorf("search by text: %w", err)
	}
	return ranked, nil
}

// Entries lists the projects the caller holds any access level on.
func (s *Session) Entries(ctx context.Context, pageable Pageable) (_ []Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("entries", start, err) }()

	entries, err := s.svc.FindEntriesForProjects(ctx, pageable, s.token.Projects())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// BySlug finds a visible project by its slug.
func (s *Session) BySlug(ctx context.Context, slug string) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("by_slug", start, err) }()

	p, err := s.svc.FindEntryBySlug(ctx, s.token.Projects(), slug)
	if err != nil {
		return Project{}, fmt.Errorf("find entry %q: %w", slug, err)
	}
	return p, nil
}

// Get loads a project by id. Projects the caller cannot see are reported as not found.
func (s *Session) Get(ctx context.Context, id string) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("get", start, err) }()

	p, err := s.svc.FindEntry(ctx, id, s.token)
	if err != nil {
		return Project{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return p, nil
}

// Publish registers p as a marketplace entry owned by the caller unless it already has an owner.
// An existing entry the caller cannot see is reported as ErrNotFound.
func (s *Session) Publish(ctx context.Context, p Project) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("publish", start, err) }()

	if _, err = s.person(); err != nil {
		return Project{}, err
	}
	entry, err := s.svc.PublishEntry(ctx, p, s.token)
	if err != nil {
		return Project{}, fmt.Errorf("publish entry: %w", err)
	}
	return entry, nil
}

// Star marks the project as starred by the caller.
func (s *Session) Star(ctx context.Context, id string) (Project, error) {
	return s.star(ctx, "star", id, s.svc.AddStar)
}

// Unstar removes the caller's star.
func (s *Session) Unstar(ctx context.Context, id string) (Project, error) {
	return s.star(ctx, "unstar", id, s.svc.RemoveStar)
}

type starFunc func(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)

func (s *Session) star(ctx context.Context, op, id string, apply starFunc) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe(op, start, err) }()

	person, err := s.person()
	if err != nil {
		return Project{}, err
	}
	p, err := s.svc.FindEntry(ctx, id, s.token)
	if err != nil {
		return Project{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	updated, err := apply(ctx, p, person)
	if err != nil {
		return Project{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	return updated, nil
}

// AddTags adds vocabulary tags, by name, to a project the caller may curate.
func (s *Session) AddTags(ctx context.Context, id string, names ...string) (Project, error) {
	return s.retag(ctx, "add_tags", id, names, s.svc.AddTags)
}

// DefineTags replaces the project's tags with the named vocabulary tags.
func (s *Session) DefineTags(ctx context.Context, id string, names ...string) (Project, error) {
	return s.retag(ctx, "define_tags", id, names, s.svc.DefineTags)
}

type tagFunc func(ctx context.Context, p project.Project, tags []Tag) (project.Project, error)

func (s *Session) retag(ctx context.Context, op, id string, names []string, apply tagFunc) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe(op, start, err) }()

	if _, err = s.person(); err != nil {
		return Project{}, err
	}
	p, err := s.svc.FindEntry(ctx, id, s.token)
	if err != nil {
		return Project{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	if !marketplaceuc.CanCurate(s.token, p) {
		return Project{}, fmt.Errorf("%s %s: %w", op, id, domain.ErrForbidden)
	}
	tags, err := s.svc.ResolveTags(ctx, names)
	if err != nil {
		return Project{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	updated, err := apply(ctx, p, tags)
	if err != nil {
		return Project{}, fmt.Errorf("%s %s: %w", op, id, err)
	}
	return updated, nil
}

func (s *Session) person() (access.Subject, error) {
	if s.token.IsVisitor() {
		return access.Subject{}, fmt.Errorf("%w: operation requires a person", domain.ErrUnauthorized)
	}
	return s.token.Subject(), nil
}
