package result

import "github.com/kailas-cloud/marketplace/internal/domain/project"

// RankedID is a project id with the relevance rank the full-text engine assigned to it.
type RankedID struct {
	ID   string
	Rank float64
}

// SearchResult is a ranked project hit. It is never persisted.
type SearchResult struct {
	project project.Project
	rank    float64
}

// New creates a search result.
func New(p project.Project, rank float64) SearchResult {
	return SearchResult{project: p, rank: rank}
}

// Project returns the matched project.
func (r SearchResult) Project() project.Project { return r.project }

// Rank returns the relevance rank; higher is more relevant.
func (r SearchResult) Rank() float64 { return r.rank }
