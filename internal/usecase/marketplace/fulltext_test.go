package marketplace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		query       string
		conjunctive bool
		want        string
	}{
		{`Tom's "data"`, true, "Tom & s & data"},
		{`Tom's "data"`, false, "Tom | s | data"},
		{"  image   resize ", true, "image & resize"},
		{"single", false, "single"},
		{`"" '`, true, ""},
		{"", true, ""},
	}
	for _, tt := range tests {
		if got := sanitizeQuery(tt.query, tt.conjunctive); got != tt.want {
			t.Errorf("sanitizeQuery(%q, %v) = %q, want %q", tt.query, tt.conjunctive, got, tt.want)
		}
	}
}

func TestSanitizeQuery_TokensCarryNoQuotesOrBlanks(t *testing.T) {
	for _, q := range []string{`a"b'c`, `it's "quoted" text`, "x\ty\nz"} {
		for _, tok := range strings.Split(sanitizeQuery(q, true), " & ") {
			if tok == "" || strings.ContainsAny(tok, "\"' \t\n") {
				t.Errorf("%q: bad token %q", q, tok)
			}
		}
	}
}

func TestPerformSearchByText_RanksVisibleProjects(t *testing.T) {
	svc, projects, _ := newTestService(t)
	pub := newProject(t, pubID, project.Code, project.Public)
	priv := newProject(t, privID, project.Data, project.Private)
	projects.selectAll = []project.Project{pub, priv}
	projects.ranked = []result.RankedID{
		{ID: otherID, Rank: 0.9},
		{ID: privID, Rank: 0.4},
		{ID: pubID, Rank: 0.7},
	}

	got, err := svc.PerformSearchByText(context.Background(), page.Of(0, 20), `Tom's "data"`, true, memberToken())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if projects.fulltextExpr != "Tom & s & data" {
		t.Errorf("expr = %q", projects.fulltextExpr)
	}
	if len(projects.fulltextIDs) != 2 {
		t.Errorf("expected the visible ids only, got %v", projects.fulltextIDs)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results without foreign ids, got %d", len(got))
	}
	if got[0].Project().ID() != pubID || got[0].Rank() != 0.7 {
		t.Errorf("first = %s/%v", got[0].Project().ID(), got[0].Rank())
	}
	if got[1].Project().ID() != privID || got[1].Rank() != 0.4 {
		t.Errorf("second = %s/%v", got[1].Project().ID(), got[1].Rank())
	}
	for i := 1; i < len(got); i++ {
		if got[i].Rank() > got[i-1].Rank() {
			t.Fatalf("ranks must not increase: %v > %v", got[i].Rank(), got[i-1].Rank())
		}
	}
}

func TestPerformSearchByText_PhaseOneUsesAccessOverlay(t *testing.T) {
	svc, projects, _ := newTestService(t)

	if _, err := svc.PerformSearchByText(context.Background(), page.Of(0, 20), "x", false, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vis := visibilityValues(projects.selectAlls[0])
	if !vis["PUBLIC"] || vis["PRIVATE"] {
		t.Fatalf("anonymous text search must see PUBLIC only, got %v", vis)
	}
	if projects.fulltextN != 0 {
		t.Fatal("no engine call without visible projects")
	}
}

func TestPerformSearchByText_EmptyQuerySkipsStorage(t *testing.T) {
	svc, projects, _ := newTestService(t)

	got, err := svc.PerformSearchByText(context.Background(), page.Of(0, 20), ` "" ' `, true, memberToken())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || len(projects.selectAlls) != 0 || projects.fulltextN != 0 {
		t.Fatalf("expected no storage calls, got %d results", len(got))
	}
}

func TestPerformSearchByText_QueryTooLong(t *testing.T) {
	svc, _, _ := newTestService(t)
	long := strings.Repeat("a", request.MaxQueryLength+1)

	_, err := svc.PerformSearchByText(context.Background(), page.Of(0, 20), long, true, nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestPerformSearchByText_Errors(t *testing.T) {
	svc, projects, _ := newTestService(t)
	projects.selectAllErr = errors.New("boom")
	if _, err := svc.PerformSearchByText(context.Background(), page.Of(0, 20), "x", true, nil); err == nil {
		t.Fatal("expected phase one error")
	}

	svc, projects, _ = newTestService(t)
	projects.selectAll = []project.Project{newProject(t, pubID, project.Code, project.Public)}
	projects.rankedErr = errors.New("boom")
	if _, err := svc.PerformSearchByText(context.Background(), page.Of(0, 20), "x", true, nil); err == nil {
		t.Fatal("expected ranking error")
	}
}
