// Package seed loads a catalog of tags and projects from YAML into storage.
package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// TagWriter persists tags in bulk.
type TagWriter interface {
	SaveAll(ctx context.Context, tags []tag.Tag) error
}

// ProjectWriter persists projects in bulk.
type ProjectWriter interface {
	SaveAll(ctx context.Context, projects []project.Project) error
}

// Catalog is the seed file layout.
type Catalog struct {
	Tags     []TagEntry     `yaml:"tags"`
	Projects []ProjectEntry `yaml:"projects"`
}

// TagEntry is one vocabulary tag.
type TagEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Public  bool   `yaml:"public"`
	OwnerID string `yaml:"owner_id"`
}

// ProjectEntry is one project. Tags reference TagEntry names, case-insensitively.
type ProjectEntry struct {
	ID              string          `yaml:"id"`
	Variant         string          `yaml:"variant"`
	Slug            string          `yaml:"slug"`
	GlobalSlug      string          `yaml:"global_slug"`
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	Namespace       string          `yaml:"namespace"`
	Visibility      string          `yaml:"visibility"`
	Tags            []string        `yaml:"tags"`
	OwnerID         string          `yaml:"owner_id"`
	Stars           []string        `yaml:"stars"`
	ForksCount      int             `yaml:"forks_count"`
	InputDataTypes  []string        `yaml:"input_data_types"`
	OutputDataTypes []string        `yaml:"output_data_types"`
	Processor       *ProcessorEntry `yaml:"processor"`
}

// ProcessorEntry is the processor of a code project.
type ProcessorEntry struct {
	Type    string        `yaml:"type"`
	Version *VersionEntry `yaml:"version"`
}

// VersionEntry is a processor version; PublishedAt is absent until published.
type VersionEntry struct {
	ModelType   string     `yaml:"model_type"`
	MLCategory  string     `yaml:"ml_category"`
	PublishedAt *time.Time `yaml:"published_at"`
}

// Load reads a catalog file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog. Unknown keys are rejected.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("parse seed: %w", err)
	}
	return c, nil
}

// Build validates the catalog into domain values.
func (c Catalog) Build() ([]tag.Tag, []project.Project, error) {
	tags := make([]tag.Tag, 0, len(c.Tags))
	byName := make(map[string]tag.Tag, len(c.Tags))
	for i, e := range c.Tags {
		t, err := tag.New(e.ID, e.Name, e.Public, e.OwnerID)
		if err != nil {
			return nil, nil, fmt.Errorf("tags[%d]: %w", i, err)
		}
		key := strings.ToLower(t.Name())
		if _, dup := byName[key]; dup {
			return nil, nil, fmt.Errorf("tags[%d]: duplicate name %q", i, t.Name())
		}
		byName[key] = t
		tags = append(tags, t)
	}

	projects := make([]project.Project, 0, len(c.Projects))
	for i, e := range c.Projects {
		p, err := e.build(byName)
		if err != nil {
			return nil, nil, fmt.Errorf("projects[%d]: %w", i, err)
		}
		projects = append(projects, p)
	}
	return tags, projects, nil
}

func (e ProjectEntry) build(vocabulary map[string]tag.Tag) (project.Project, error) {
	tags := make([]tag.Tag, 0, len(e.Tags))
	for _, name := range e.Tags {
		t, ok := vocabulary[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return project.Project{}, fmt.Errorf("unknown tag %q", name)
		}
		tags = append(tags, t)
	}

	params := project.Params{
		ID:              e.ID,
		Variant:         project.Variant(e.Variant),
		Slug:            e.Slug,
		GlobalSlug:      e.GlobalSlug,
		Name:            e.Name,
		Description:     e.Description,
		Namespace:       e.Namespace,
		Visibility:      project.Visibility(e.Visibility),
		Tags:            tags,
		OwnerID:         e.OwnerID,
		Stars:           e.Stars,
		ForksCount:      e.ForksCount,
		InputDataTypes:  e.InputDataTypes,
		OutputDataTypes: e.OutputDataTypes,
	}
	if e.Processor != nil {
		params.Processor = &project.Processor{Type: project.ProcessorType(e.Processor.Type)}
		if v := e.Processor.Version; v != nil {
			params.Processor.Version = &project.Version{
				ModelType:  v.ModelType,
				MLCategory: v.MLCategory,
				FinishedAt: v.PublishedAt,
			}
		}
	}
	return project.New(params)
}

// Apply validates the catalog and writes tags, then projects.
func Apply(ctx context.Context, c Catalog, tags TagWriter, projects ProjectWriter, logger *zap.Logger) error {
	ts, ps, err := c.Build()
	if err != nil {
		return fmt.Errorf("build seed: %w", err)
	}
	if err := tags.SaveAll(ctx, ts); err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}
	if err := projects.SaveAll(ctx, ps); err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}
	logger.Info("Seed catalog loaded", zap.Int("tags", len(ts)), zap.Int("projects", len(ps)))
	return nil
}
