package marketplace

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// AddStar records a star from person. Starring twice keeps one star.
func (s *Service) AddStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error) {
	return s.save(ctx, p.WithStar(person.ID))
}

// RemoveStar drops person's star. Removing an absent star is a no-op write.
func (s *Service) RemoveStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error) {
	s.log(ctx).Info("Star removed",
		zap.String("project_id", p.ID()),
		zap.String("person_id", person.ID),
	)
	return s.save(ctx, p.WithoutStar(person.ID))
}

// AddTags attaches existing tags; a tag already attached (by id) is kept once.
func (s *Service) AddTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error) {
	return s.save(ctx, p.WithTags(tags...))
}

// DefineTags replaces the tag set with tags.
func (s *Service) DefineTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error) {
	return s.save(ctx, p.WithoutTags().WithTags(tags...))
}

// ResolveTags looks up tags by name, case-insensitively. Every name must exist.
func (s *Service) ResolveTags(ctx context.Context, names []string) ([]tag.Tag, error) {
	wanted := foldNames(names)
	if len(wanted) == 0 {
		return []tag.Tag{}, nil
	}
	tags, err := s.tags.repo.FindByNamesIgnoreCase(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}

	byName := make(map[string]tag.Tag, len(tags))
	for _, t := range tags {
		byName[strings.ToLower(t.Name())] = t
	}
	out := make([]tag.Tag, 0, len(wanted))
	for _, n := range wanted {
		t, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("tag %q: %w", n, domain.ErrNotFound)
		}
		out = append(out, t)
	}
	return out, nil
}

// save persists p. Concurrent writers overwrite each other; the last write wins.
func (s *Service) save(ctx context.Context, p project.Project) (project.Project, error) {
	saved, err := s.projects.Save(ctx, p)
	if err != nil {
		return project.Project{}, fmt.Errorf("save project %s: %w", p.ID(), err)
	}
	return saved, nil
}
