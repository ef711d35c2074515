package project

import (
	"testing"
	"time"

	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

const testID = "0b8f3c1e-7a2d-4e5f-9c6b-1a2b3c4d5e6f"

func testParams() Params {
	return Params{
		ID:         testID,
		Variant:    Code,
		Slug:       "image-classifier",
		Name:       "Image Classifier",
		Namespace:  "vision",
		Visibility: Public,
	}
}

func TestNew_Valid(t *testing.T) {
	p, err := New(testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != testID || p.Slug() != "image-classifier" || p.Variant() != Code {
		t.Fatalf("unexpected project: %+v", p.Params())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"bad id", func(p *Params) { p.ID = "42" }},
		{"bad variant", func(p *Params) { p.Variant = "MODEL" }},
		{"empty slug", func(p *Params) { p.Slug = "" }},
		{"bad slug", func(p *Params) { p.Slug = "has space" }},
		{"bad visibility", func(p *Params) { p.Visibility = "INTERNAL" }},
		{"negative forks", func(p *Params) { p.ForksCount = -1 }},
		{"processor on data project", func(p *Params) {
			p.Variant = Data
			p.Processor = &Processor{Type: Algorithm}
		}},
		{"bad processor type", func(p *Params) { p.Processor = &Processor{Type: "MODEL"} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := testParams()
			tc.mutate(&params)
			if _, err := New(params); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStars_RoundTrip(t *testing.T) {
	p, _ := New(testParams())

	starred := p.WithStar("alice")
	if starred.StarsCount() != 1 || !starred.HasStar("alice") {
		t.Fatalf("expected alice star, got %v", starred.Stars())
	}
	if p.StarsCount() != 0 {
		t.Fatal("original project mutated")
	}

	again := starred.WithStar("alice")
	if again.StarsCount() != 1 {
		t.Fatalf("star must be idempotent, got %d", again.StarsCount())
	}

	unstarred := again.WithoutStar("alice")
	if unstarred.StarsCount() != 0 || unstarred.HasStar("alice") {
		t.Fatalf("expected no stars, got %v", unstarred.Stars())
	}
}

func TestTags_UnionByID(t *testing.T) {
	t1 := tag.Reconstruct("t1", "nlp", true, "")
	t2 := tag.Reconstruct("t2", "cv", true, "")
	dup := tag.Reconstruct("t1", "NLP", true, "")

	p := Reconstruct(testParams()).WithTags(t1, t2, dup)
	if len(p.Tags()) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(p.Tags()))
	}

	cleared := p.WithoutTags().WithTags(t1)
	tags := cleared.Tags()
	if len(tags) != 1 || tags[0].ID() != "t1" {
		t.Fatalf("expected only t1, got %v", tags)
	}
}

func TestProcessor_CopyIsolation(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	params := testParams()
	params.Processor = &Processor{Type: Operation, Version: &Version{ModelType: "cnn", FinishedAt: &at}}
	p := Reconstruct(params)

	proc := p.Processor()
	proc.Version.ModelType = "changed"
	*proc.Version.FinishedAt = time.Time{}

	if p.Processor().Version.ModelType != "cnn" {
		t.Fatal("processor mutated through getter")
	}
	if !p.Processor().Version.FinishedAt.Equal(at) {
		t.Fatal("finishedAt mutated through getter")
	}
	if !p.Processor().Version.Published() {
		t.Fatal("expected published version")
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseVariant("DATA_PROJECT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseVariant("data"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParseVisibility("PRIVATE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseProcessorType("VISUALIZATION"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseProcessorType("MODEL"); err == nil {
		t.Fatal("expected error")
	}
}
