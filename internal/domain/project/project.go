package project

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// MaxSlugLength is the maximum project slug length.
const MaxSlugLength = 255

// Searchable is the capability shared by every project variant that search and ranking rely on.
type Searchable interface {
	ID() string
	Slug() string
	Variant() Variant
	Visibility() Visibility
	Tags() []tag.Tag
	StarsCount() int
}

// Params carries the fields of a project for construction.
type Params struct {
	ID              string
	Variant         Variant
	Slug            string
	GlobalSlug      string
	Name            string
	Description     string
	Namespace       string
	Visibility      Visibility
	Tags            []tag.Tag
	OwnerID         string
	Stars           []string
	ForksCount      int
	InputDataTypes  []string
	OutputDataTypes []string
	Processor       *Processor
}

// Project is the catalog entry aggregate (immutable value object).
type Project struct {
	id              string
	variant         Variant
	slug            string
	globalSlug      string
	name            string
	description     string
	namespace       string
	visibility      Visibility
	tags            []tag.Tag
	ownerID         string
	stars           []string
	forksCount      int
	inputDataTypes  []string
	outputDataTypes []string
	processor       *Processor
}

var _ Searchable = Project{}

// New validates and creates a Project.
// ID must be a UUID, slug ^[a-zA-Z0-9][a-zA-Z0-9_.-]*$, exactly one visibility scope.
func New(p Params) (Project, error) {
	if err := uuid.Validate(p.ID); err != nil {
		return Project{}, fmt.Errorf("project ID must be a UUID: %w", err)
	}
	if !p.Variant.IsValid() {
		return Project{}, fmt.Errorf("unknown project variant %q", p.Variant)
	}
	if p.Slug == "" {
		return Project{}, fmt.Errorf("slug is required")
	}
	if len(p.Slug) > MaxSlugLength || !slugRegex.MatchString(p.Slug) {
		return Project{}, fmt.Errorf("invalid slug %q", p.Slug)
	}
	if !p.Visibility.IsValid() {
		return Project{}, fmt.Errorf("unknown visibility scope %q", p.Visibility)
	}
	if p.ForksCount < 0 {
		return Project{}, fmt.Errorf("forks count must not be negative")
	}
	if p.Processor != nil {
		if p.Variant != Code {
			return Project{}, fmt.Errorf("only code projects carry a processor")
		}
		if !p.Processor.Type.IsValid() {
			return Project{}, fmt.Errorf("unknown processor type %q", p.Processor.Type)
		}
	}
	return Reconstruct(p), nil
}

// Reconstruct creates a Project without validation (storage hydration).
// Duplicate tags and stars are collapsed.
func Reconstruct(p Params) Project {
	return Project{
		id:              p.ID,
		variant:         p.Variant,
		slug:            p.Slug,
		globalSlug:      p.GlobalSlug,
		name:            p.Name,
		description:     p.Description,
		namespace:       p.Namespace,
		visibility:      p.Visibility,
		tags:            unionTags(nil, p.Tags),
		ownerID:         p.OwnerID,
		stars:           unionStrings(nil, p.Stars...),
		forksCount:      p.ForksCount,
		inputDataTypes:  cloneStrings(p.InputDataTypes),
		outputDataTypes: cloneStrings(p.OutputDataTypes),
		processor:       cloneProcessor(p.Processor),
	}
}

// Params returns the project fields; slices are copies.
func (p Project) Params() Params {
	return Params{
		ID:              p.id,
		Variant:         p.variant,
		Slug:            p.slug,
		GlobalSlug:      p.globalSlug,
		Name:            p.name,
		Description:     p.description,
		Namespace:       p.namespace,
		Visibility:      p.visibility,
		Tags:            p.Tags(),
		OwnerID:         p.ownerID,
		Stars:           p.Stars(),
		ForksCount:      p.forksCount,
		InputDataTypes:  cloneStrings(p.inputDataTypes),
		OutputDataTypes: cloneStrings(p.outputDataTypes),
		Processor:       cloneProcessor(p.processor),
	}
}

// ID returns the project identifier.
func (p Project) ID() string { return p.id }

// Variant returns the project kind.
func (p Project) Variant() Variant { return p.variant }

// Slug returns the project slug.
func (p Project) Slug() string { return p.slug }

// GlobalSlug returns the marketplace-wide slug.
func (p Project) GlobalSlug() string { return p.globalSlug }

// Name returns the display name.
func (p Project) Name() string { return p.name }

// Description returns the project description.
func (p Project) Description() string { return p.description }

// Namespace returns the owning namespace path.
func (p Project) Namespace() string { return p.namespace }

// Visibility returns the visibility scope.
func (p Project) Visibility() Visibility { return p.visibility }

// Tags returns a copy of the tag set.
func (p Project) Tags() []tag.Tag {
	out := make([]tag.Tag, len(p.tags))
	copy(out, p.tags)
	return out
}

// OwnerID returns the owning person id.
func (p Project) OwnerID() string { return p.ownerID }

// Stars returns the ids of persons who starred the project, sorted.
func (p Project) Stars() []string { return cloneStrings(p.stars) }

// StarsCount returns the size of the star set.
func (p Project) StarsCount() int { return len(p.stars) }

// HasStar reports whether the person starred the project.
func (p Project) HasStar(personID string) bool {
	i := sort.SearchStrings(p.stars, personID)
	return i < len(p.stars) && p.stars[i] == personID
}

// ForksCount returns the number of forks.
func (p Project) ForksCount() int { return p.forksCount }

// InputDataTypes returns the accepted input data types.
func (p Project) InputDataTypes() []string { return cloneStrings(p.inputDataTypes) }

// OutputDataTypes returns the produced output data types.
func (p Project) OutputDataTypes() []string { return cloneStrings(p.outputDataTypes) }

// Processor returns the attached processor, nil when absent.
func (p Project) Processor() *Processor { return cloneProcessor(p.processor) }

// WithStar returns a copy with the person added to the star set.
func (p Project) WithStar(personID string) Project {
	c := p.copy()
	c.stars = unionStrings(p.stars, personID)
	return c
}

// WithoutStar returns a copy with the person removed from the star set.
func (p Project) WithoutStar(personID string) Project {
	c := p.copy()
	c.stars = make([]string, 0, len(p.stars))
	for _, s := range p.stars {
		if s != personID {
			c.stars = append(c.stars, s)
		}
	}
	return c
}

// WithTags returns a copy with the tags added; tags already present (by id) are skipped.
func (p Project) WithTags(tags ...tag.Tag) Project {
	c := p.copy()
	c.tags = unionTags(p.tags, tags)
	return c
}

// WithoutTags returns a copy with an empty tag set.
func (p Project) WithoutTags() Project {
	c := p.copy()
	c.tags = []tag.Tag{}
	return c
}

// WithGlobalSlug returns a copy with the global slug set.
func (p Project) WithGlobalSlug(s string) Project {
	c := p.copy()
	c.globalSlug = s
	return c
}

// WithOwnerID returns a copy with the owner set.
func (p Project) WithOwnerID(id string) Project {
	c := p.copy()
	c.ownerID = id
	return c
}

func (p Project) copy() Project {
	return Reconstruct(p.Params())
}

func unionTags(base, add []tag.Tag) []tag.Tag {
	out := make([]tag.Tag, 0, len(base)+len(add))
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, list := range [][]tag.Tag{base, add} {
		for _, t := range list {
			if _, ok := seen[t.ID()]; ok {
				continue
			}
			seen[t.ID()] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func unionStrings(base []string, add ...string) []string {
	set := make(map[string]struct{}, len(base)+len(add))
	for _, s := range base {
		set[s] = struct{}{}
	}
	for _, s := range add {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneProcessor(p *Processor) *Processor {
	if p == nil {
		return nil
	}
	c := &Processor{Type: p.Type}
	if p.Version != nil {
		v := *p.Version
		if p.Version.FinishedAt != nil {
			at := *p.Version.FinishedAt
			v.FinishedAt = &at
		}
		c.Version = &v
	}
	return c
}
