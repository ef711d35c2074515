package request

import (
	"fmt"

	"github.com/kailas-cloud/marketplace/internal/domain/project"
)

// MaxQueryLength is the maximum allowed free-text query length.
const MaxQueryLength = 4096

// SearchableType is a single discriminator covering project variants and processor types.
type SearchableType string

// Searchable types.
const (
	SearchableCode          SearchableType = "CODE_PROJECT"
	SearchableData          SearchableType = "DATA_PROJECT"
	SearchableOperation     SearchableType = "OPERATION"
	SearchableAlgorithm     SearchableType = "ALGORITHM"
	SearchableVisualization SearchableType = "VISUALIZATION"
)

// IsValid checks that the searchable type is known.
func (t SearchableType) IsValid() bool {
	switch t {
	case SearchableCode, SearchableData, SearchableOperation, SearchableAlgorithm, SearchableVisualization:
		return true
	}
	return false
}

// SearchRequest is a sparse set of search criteria. A nil or empty field is no constraint.
// List fields suffixed Or match any element; the others must all match.
type SearchRequest struct {
	ProjectType    *project.Variant
	SearchableType *SearchableType
	ProcessorType  *project.ProcessorType
	Visibility     *project.Visibility

	Slug            *string
	SlugExact       *string
	GlobalSlug      *string
	GlobalSlugExact *string
	Name            *string
	NameExact       *string
	Namespace       *string
	NamespaceExact  *string

	MinStars      *int
	MaxStars      *int
	MinForksCount *int
	MaxForksCount *int

	InputDataTypes    []string
	OutputDataTypes   []string
	InputDataTypesOr  []string
	OutputDataTypesOr []string

	Tags   []string
	TagsOr []string

	ModelTypeOr  []string
	MLCategoryOr []string
	OwnerIDsOr   []string

	Published *bool
}

// Validate checks enum values and range bounds.
func (r *SearchRequest) Validate() error {
	if r.ProjectType != nil && !r.ProjectType.IsValid() {
		return fmt.Errorf("unknown project type %q", *r.ProjectType)
	}
	if r.SearchableType != nil && !r.SearchableType.IsValid() {
		return fmt.Errorf("unknown searchable type %q", *r.SearchableType)
	}
	if r.ProcessorType != nil && !r.ProcessorType.IsValid() {
		return fmt.Errorf("unknown processor type %q", *r.ProcessorType)
	}
	if r.Visibility != nil && !r.Visibility.IsValid() {
		return fmt.Errorf("unknown visibility scope %q", *r.Visibility)
	}
	if r.MinStars != nil && r.MaxStars != nil && *r.MinStars > *r.MaxStars {
		return fmt.Errorf("minStars must not exceed maxStars")
	}
	if r.MinForksCount != nil && r.MaxForksCount != nil && *r.MinForksCount > *r.MaxForksCount {
		return fmt.Errorf("minForksCount must not exceed maxForksCount")
	}
	return nil
}

// TargetVariant infers the searched variant: explicit project type first, then the
// searchable type for CODE_PROJECT/DATA_PROJECT, otherwise Generic.
func (r *SearchRequest) TargetVariant() project.Variant {
	if r.ProjectType != nil {
		return *r.ProjectType
	}
	if r.SearchableType != nil {
		switch *r.SearchableType {
		case SearchableCode:
			return project.Code
		case SearchableData:
			return project.Data
		}
	}
	return project.Generic
}

// TargetProcessorType infers the processor type: explicit first, then the searchable
// type for OPERATION/ALGORITHM/VISUALIZATION, otherwise nil.
func (r *SearchRequest) TargetProcessorType() *project.ProcessorType {
	if r.ProcessorType != nil {
		t := *r.ProcessorType
		return &t
	}
	if r.SearchableType == nil {
		return nil
	}
	var t project.ProcessorType
	switch *r.SearchableType {
	case SearchableOperation:
		t = project.Operation
	case SearchableAlgorithm:
		t = project.Algorithm
	case SearchableVisualization:
		t = project.Visualization
	default:
		return nil
	}
	return &t
}
