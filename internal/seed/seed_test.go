package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

const catalog = `
tags:
  - id: 0e4b6c3a-52f1-4b8e-9d7a-1f2c3b4d5e01
    name: NLP
    public: true
projects:
  - id: 5d2c1f00-8a1b-4c3d-9e4f-000000000001
    variant: CODE_PROJECT
    slug: image-resize
    name: Image Resize
    visibility: PUBLIC
    tags: [nlp]
    stars: [a, b, a]
    processor:
      type: OPERATION
      version:
        model_type: CNN
        published_at: 2024-03-01T12:00:00Z
  - id: 5d2c1f00-8a1b-4c3d-9e4f-000000000002
    variant: DATA_PROJECT
    slug: corpus
    name: Corpus
    visibility: PRIVATE
`

type tagSink struct {
	saved []tag.Tag
	err   error
}

func (s *tagSink) SaveAll(_ context.Context, tags []tag.Tag) error {
	s.saved = tags
	return s.err
}

type projectSink struct {
	saved []project.Project
}

func (s *projectSink) SaveAll(_ context.Context, projects []project.Project) error {
	s.saved = projects
	return nil
}

func TestApply(t *testing.T) {
	c, err := Parse([]byte(catalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tags, projects := &tagSink{}, &projectSink{}

	if err := Apply(context.Background(), c, tags, projects, zap.NewNop()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(tags.saved) != 1 || len(projects.saved) != 2 {
		t.Fatalf("saved %d tags, %d projects", len(tags.saved), len(projects.saved))
	}

	p := projects.saved[0]
	if p.StarsCount() != 2 || len(p.Tags()) != 1 || p.Tags()[0].Name() != "NLP" {
		t.Errorf("unexpected project: %+v", p.Params())
	}
	if v := p.Processor().Version; !v.Published() || v.FinishedAt.Year() != 2024 {
		t.Errorf("unexpected version: %+v", v)
	}
	if projects.saved[1].Processor() != nil {
		t.Error("data project must not carry a processor")
	}
}

func TestApply_WriteError(t *testing.T) {
	c, _ := Parse([]byte(catalog))
	projects := &projectSink{}
	err := Apply(context.Background(), c, &tagSink{err: errors.New("down")}, projects, zap.NewNop())
	if err == nil {
		t.Fatal("expected error")
	}
	if projects.saved != nil {
		t.Fatal("projects must not be written after a tag failure")
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown tag", `
projects:
  - {id: 5d2c1f00-8a1b-4c3d-9e4f-000000000001, variant: DATA_PROJECT, slug: a, visibility: PUBLIC, tags: [x]}
`, `unknown tag "x"`},
		{"duplicate tag", `
tags:
  - {id: 0e4b6c3a-52f1-4b8e-9d7a-1f2c3b4d5e01, name: NLP}
  - {id: 0e4b6c3a-52f1-4b8e-9d7a-1f2c3b4d5e02, name: nlp}
`, "duplicate name"},
		{"bad project", `
projects:
  - {id: nope, variant: DATA_PROJECT, slug: a, visibility: PUBLIC}
`, "must be a UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if _, _, err := c.Build(); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("tags:\n  - id: x\n    colour: red\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(catalog), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(c.Projects))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
