package chi

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeNotFound           ErrorCode = "not_found"
	ErrorCodeUnsupportedVariant ErrorCode = "unsupported_variant"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeForbidden          ErrorCode = "forbidden"
	ErrorCodeUnavailable        ErrorCode = "unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SearchRequest is the body of POST /projects/search. Absent fields are no constraint.
type SearchRequest struct {
	ProjectType    *string `json:"projectType,omitempty"`
	SearchableType *string `json:"searchableType,omitempty"`
	ProcessorType  *string `json:"processorType,omitempty"`
	Visibility     *string `json:"visibility,omitempty"`

	Slug            *string `json:"slug,omitempty"`
	SlugExact       *string `json:"slugExact,omitempty"`
	GlobalSlug      *string `json:"globalSlug,omitempty"`
	GlobalSlugExact *string `json:"globalSlugExact,omitempty"`
	Name            *string `json:"name,omitempty"`
	NameExact       *string `json:"nameExact,omitempty"`
	Namespace       *string `json:"namespace,omitempty"`
	NamespaceExact  *string `json:"namespaceExact,omitempty"`

	MinStars      *int `json:"minStars,omitempty"`
	MaxStars      *int `json:"maxStars,omitempty"`
	MinForksCount *int `json:"minForksCount,omitempty"`
	MaxForksCount *int `json:"maxForksCount,omitempty"`

	InputDataTypes    []string `json:"inputDataTypes,omitempty"`
	OutputDataTypes   []string `json:"outputDataTypes,omitempty"`
	InputDataTypesOr  []string `json:"inputDataTypesOr,omitempty"`
	OutputDataTypesOr []string `json:"outputDataTypesOr,omitempty"`

	Tags   []string `json:"tags,omitempty"`
	TagsOr []string `json:"tagsOr,omitempty"`

	ModelTypeOr  []string `json:"modelTypeOr,omitempty"`
	MLCategoryOr []string `json:"mlCategoryOr,omitempty"`
	OwnerIDsOr   []string `json:"ownerIdsOr,omitempty"`

	Published *bool `json:"published,omitempty"`
}

// TagsRequest is the body of POST|PUT /projects/{id}/tags.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// EntryRequest is the body of POST /projects/entries.
type EntryRequest struct {
	ID              string             `json:"id"`
	ProjectType     string             `json:"projectType"`
	Slug            string             `json:"slug"`
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	Namespace       string             `json:"namespace,omitempty"`
	Visibility      string             `json:"visibilityScope"`
	Tags            []string           `json:"tags,omitempty"`
	InputDataTypes  []string           `json:"inputDataTypes,omitempty"`
	OutputDataTypes []string           `json:"outputDataTypes,omitempty"`
	DataProcessor   *ProcessorResponse `json:"dataProcessor,omitempty"`
}

// TagResponse is a tag as rendered in a project.
type TagResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// PublishingInfo carries the publication timestamp of a processor version.
type PublishingInfo struct {
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// VersionResponse is a processor version.
type VersionResponse struct {
	ModelType      string         `json:"modelType,omitempty"`
	MLCategory     string         `json:"mlCategory,omitempty"`
	PublishingInfo PublishingInfo `json:"publishingInfo"`
}

// ProcessorResponse is the data processor of a code project.
type ProcessorResponse struct {
	Type             string           `json:"type"`
	ProcessorVersion *VersionResponse `json:"processorVersion,omitempty"`
}

// ProjectResponse is a marketplace entry.
type ProjectResponse struct {
	ID              string             `json:"id"`
	ProjectType     string             `json:"projectType"`
	Slug            string             `json:"slug"`
	GlobalSlug      string             `json:"globalSlug,omitempty"`
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	Namespace       string             `json:"namespace,omitempty"`
	Visibility      string             `json:"visibilityScope"`
	Tags            []TagResponse      `json:"tags"`
	OwnerID         string             `json:"ownerId,omitempty"`
	StarsCount      int                `json:"starsCount"`
	ForksCount      int                `json:"forksCount"`
	InputDataTypes  []string           `json:"inputDataTypes"`
	OutputDataTypes []string           `json:"outputDataTypes"`
	DataProcessor   *ProcessorResponse `json:"dataProcessor,omitempty"`
}

// PageResponse is one page of entries.
type PageResponse struct {
	Content       []ProjectResponse `json:"content"`
	Number        int               `json:"number"`
	Size          int               `json:"size"`
	TotalElements int               `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

// RankedProjectResponse is an entry with its full-text rank.
type RankedProjectResponse struct {
	Project ProjectResponse `json:"project"`
	Rank    float64         `json:"rank"`
}

// ListResponse wraps a plain list.
type ListResponse[T any] struct {
	Content []T `json:"content"`
}

func searchRequestToDomain(req SearchRequest) *request.SearchRequest {
	out := &request.SearchRequest{
		Slug:              req.Slug,
		SlugExact:         req.SlugExact,
		GlobalSlug:        req.GlobalSlug,
		GlobalSlugExact:   req.GlobalSlugExact,
		Name:              req.Name,
		NameExact:         req.NameExact,
		Namespace:         req.Namespace,
		NamespaceExact:    req.NamespaceExact,
		MinStars:          req.MinStars,
		MaxStars:          req.MaxStars,
		MinForksCount:     req.MinForksCount,
		MaxForksCount:     req.MaxForksCount,
		InputDataTypes:    req.InputDataTypes,
		OutputDataTypes:   req.OutputDataTypes,
		InputDataTypesOr:  req.InputDataTypesOr,
		OutputDataTypesOr: req.OutputDataTypesOr,
		Tags:              req.Tags,
		TagsOr:            req.TagsOr,
		ModelTypeOr:       req.ModelTypeOr,
		MLCategoryOr:      req.MLCategoryOr,
		OwnerIDsOr:        req.OwnerIDsOr,
		Published:         req.Published,
	}
	if req.ProjectType != nil {
		v := project.Variant(*req.ProjectType)
		out.ProjectType = &v
	}
	if req.SearchableType != nil {
		t := request.SearchableType(*req.SearchableType)
		out.SearchableType = &t
	}
	if req.ProcessorType != nil {
		t := project.ProcessorType(*req.ProcessorType)
		out.ProcessorType = &t
	}
	if req.Visibility != nil {
		v := project.Visibility(*req.Visibility)
		out.Visibility = &v
	}
	return out
}

func entryToDomain(req EntryRequest, tags []tag.Tag) (project.Project, error) {
	params := project.Params{
		ID:              req.ID,
		Variant:         project.Variant(req.ProjectType),
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     req.Description,
		Namespace:       req.Namespace,
		Visibility:      project.Visibility(req.Visibility),
		Tags:            tags,
		InputDataTypes:  req.InputDataTypes,
		OutputDataTypes: req.OutputDataTypes,
	}
	if dp := req.DataProcessor; dp != nil {
		params.Processor = &project.Processor{Type: project.ProcessorType(dp.Type)}
		if v := dp.ProcessorVersion; v != nil {
			params.Processor.Version = &project.Version{
				ModelType:  v.ModelType,
				MLCategory: v.MLCategory,
				FinishedAt: v.PublishingInfo.FinishedAt,
			}
		}
	}
	p, err := project.New(params)
	if err != nil {
		return project.Project{}, fmt.Errorf("build project: %w", err)
	}
	return p, nil
}

func projectToResponse(p project.Project) ProjectResponse {
	tags := p.Tags()
	out := ProjectResponse{
		ID:              p.ID(),
		ProjectType:     string(p.Variant()),
		Slug:            p.Slug(),
		GlobalSlug:      p.GlobalSlug(),
		Name:            p.Name(),
		Description:     p.Description(),
		Namespace:       p.Namespace(),
		Visibility:      string(p.Visibility()),
		Tags:            make([]TagResponse, len(tags)),
		OwnerID:         p.OwnerID(),
		StarsCount:      p.StarsCount(),
		ForksCount:      p.ForksCount(),
		InputDataTypes:  nonNil(p.InputDataTypes()),
		OutputDataTypes: nonNil(p.OutputDataTypes()),
	}
	for i, t := range tags {
		out.Tags[i] = TagResponse{ID: t.ID(), Name: t.Name(), Public: t.Public()}
	}
	if proc := p.Processor(); proc != nil {
		out.DataProcessor = &ProcessorResponse{Type: string(proc.Type)}
		if v := proc.Version; v != nil {
			out.DataProcessor.ProcessorVersion = &VersionResponse{
				ModelType:      v.ModelType,
				MLCategory:     v.MLCategory,
				PublishingInfo: PublishingInfo{FinishedAt: v.FinishedAt},
			}
		}
	}
	return out
}

func projectsToResponse(ps []project.Project) []ProjectResponse {
	out := make([]ProjectResponse, len(ps))
	for i, p := range ps {
		out[i] = projectToResponse(p)
	}
	return out
}

func pageToResponse(p page.Page[project.Project]) PageResponse {
	return PageResponse{
		Content:       projectsToResponse(p.Items()),
		Number:        p.Pageable().Number(),
		Size:          p.Pageable().Size(),
		TotalElements: p.Total(),
		TotalPages:    p.TotalPages(),
	}
}

func rankedToResponse(rs []result.SearchResult) []RankedProjectResponse {
	out := make([]RankedProjectResponse, len(rs))
	for i, r := range rs {
		out[i] = RankedProjectResponse{Project: projectToResponse(r.Project()), Rank: r.Rank()}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
