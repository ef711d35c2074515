package result

import (
	"testing"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
)

func TestNew(t *testing.T) {
	p := project.Reconstruct(project.Params{ID: "p1", Slug: "demo", Variant: project.Data})

	r := New(p, 0.75)

	if r.Project().ID() != "p1" {
		t.Errorf("Project().ID() = %q", r.Project().ID())
	}
	if r.Rank() != 0.75 {
		t.Errorf("Rank() = %f", r.Rank())
	}
}
