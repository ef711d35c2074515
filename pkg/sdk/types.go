package marketplace

import (
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// Catalog values are shared with the server.
type (
	Project        = project.Project
	ProjectParams  = project.Params
	Processor      = project.Processor
	Version        = project.Version
	Tag            = tag.Tag
	SearchRequest  = request.SearchRequest
	SearchableType = request.SearchableType
	RankedProject  = result.SearchResult
	Pageable       = page.Pageable
	Sort           = page.Sort
	ProjectPage    = page.Page[project.Project]
	Level          = access.Level
)

// Access levels, lowest first.
const (
	Guest      = access.Guest
	Reporter   = access.Reporter
	Developer  = access.Developer
	Maintainer = access.Maintainer
	Owner      = access.Owner
)

// Project variants.
const (
	DataProject = project.Data
	CodeProject = project.Code
)

// PageOf returns an unsorted page request.
func PageOf(number, size int) Pageable { return page.Of(number, size) }

// SortedPage returns a page request ordered by sort, e.g. "starsCount,desc".
func SortedPage(number, size int, sort string) (Pageable, error) {
	s, err := page.ParseSort(sort)
	if err != nil {
		return Pageable{}, err
	}
	return page.NewPageable(number, size, s)
}

// NewProject validates params into a project.
func NewProject(p ProjectParams) (Project, error) { return project.New(p) }
