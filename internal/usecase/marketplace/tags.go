package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// tagMatch is the outcome of resolving tag names. empty means no project can match.
// ids holds names that resolved to one tag; each alternatives entry holds the tags
// sharing one name that differs only in case.
type tagMatch struct {
	ids          []string
	alternatives [][]string
	empty        bool
}

// tagResolver turns tag names from a request into tag ids from the vocabulary.
type tagResolver struct {
	repo TagRepository
}

// resolveAll requires every requested name to exist. Names compare case-insensitively.
// A blank name never matches.
func (r *tagResolver) resolveAll(ctx context.Context, names []string) (tagMatch, error) {
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return tagMatch{empty: true}, nil
		}
	}
	wanted := foldNames(names)
	tags, err := r.repo.FindByNamesIgnoreCase(ctx, wanted)
	if err != nil {
		return tagMatch{}, fmt.Errorf("resolve tags: %w", err)
	}

	byName := make(map[string][]tag.Tag, len(wanted))
	for _, t := range tags {
		n := strings.ToLower(t.Name())
		byName[n] = append(byName[n], t)
	}

	var m tagMatch
	for _, n := range wanted {
		switch ids := tagIDs(byName[n]); len(ids) {
		case 0:
			return tagMatch{empty: true}, nil
		case 1:
			m.ids = append(m.ids, ids[0])
		default:
			m.alternatives = append(m.alternatives, ids)
		}
	}
	return m, nil
}

// resolveAny requires at least one requested name to exist.
func (r *tagResolver) resolveAny(ctx context.Context, names []string) (tagMatch, error) {
	tags, err := r.repo.FindByNamesIgnoreCase(ctx, foldNames(names))
	if err != nil {
		return tagMatch{}, fmt.Errorf("resolve tags: %w", err)
	}
	if len(tags) == 0 {
		return tagMatch{empty: true}, nil
	}
	return tagMatch{ids: tagIDs(tags)}, nil
}

// foldNames lower-cases names and drops blanks and case-insensitive duplicates, keeping order.
func foldNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func tagIDs(tags []tag.Tag) []string {
	seen := make(map[string]struct{}, len(tags))
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.ID()]; ok {
			continue
		}
		seen[t.ID()] = struct{}{}
		ids = append(ids, t.ID())
	}
	return ids
}
