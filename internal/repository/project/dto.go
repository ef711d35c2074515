package project

import (
	"encoding/json"
	"fmt"
	"time"

	domproj "github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
)

// projectDoc is the JSON document stored under <prefix>project:<id>.
// stars_count duplicates len(stars) so the index can range over it.
type projectDoc struct {
	ID              string        `json:"id"`
	Variant         string        `json:"variant"`
	Slug            string        `json:"slug"`
	GlobalSlug      string        `json:"global_slug"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Namespace       string        `json:"namespace"`
	Visibility      string        `json:"visibility"`
	Tags            []tagDoc      `json:"tags"`
	OwnerID         string        `json:"owner_id"`
	Stars           []string      `json:"stars"`
	StarsCount      int           `json:"stars_count"`
	ForksCount      int           `json:"forks_count"`
	InputDataTypes  []string      `json:"input_data_types"`
	OutputDataTypes []string      `json:"output_data_types"`
	Processor       *processorDoc `json:"processor,omitempty"`
}

type tagDoc struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Public  bool   `json:"public"`
	OwnerID string `json:"owner_id,omitempty"`
}

type processorDoc struct {
	Type    string      `json:"type"`
	Version *versionDoc `json:"version,omitempty"`
}

// versionDoc keeps published_at absent while unpublished so ismissing() matches it.
type versionDoc struct {
	ModelType   string `json:"model_type,omitempty"`
	MLCategory  string `json:"ml_category,omitempty"`
	PublishedAt *int64 `json:"published_at,omitempty"`
}

func marshalProject(p domproj.Project) ([]byte, error) {
	tags := p.Tags()
	doc := projectDoc{
		ID:              p.ID(),
		Variant:         string(p.Variant()),
		Slug:            p.Slug(),
		GlobalSlug:      p.GlobalSlug(),
		Name:            p.Name(),
		Description:     p.Description(),
		Namespace:       p.Namespace(),
		Visibility:      string(p.Visibility()),
		Tags:            make([]tagDoc, len(tags)),
		OwnerID:         p.OwnerID(),
		Stars:           nonNil(p.Stars()),
		StarsCount:      p.StarsCount(),
		ForksCount:      p.ForksCount(),
		InputDataTypes:  nonNil(p.InputDataTypes()),
		OutputDataTypes: nonNil(p.OutputDataTypes()),
	}
	for i, t := range tags {
		doc.Tags[i] = tagDoc{ID: t.ID(), Name: t.Name(), Public: t.Public(), OwnerID: t.OwnerID()}
	}
	if proc := p.Processor(); proc != nil {
		doc.Processor = &processorDoc{Type: string(proc.Type)}
		if v := proc.Version; v != nil {
			vd := &versionDoc{ModelType: v.ModelType, MLCategory: v.MLCategory}
			if v.FinishedAt != nil {
				ms := v.FinishedAt.UnixMilli()
				vd.PublishedAt = &ms
			}
			doc.Processor.Version = vd
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal project %s: %w", p.ID(), err)
	}
	return data, nil
}

func unmarshalProject(data []byte) (domproj.Project, error) {
	var doc projectDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domproj.Project{}, fmt.Errorf("unmarshal project: %w", err)
	}

	params := domproj.Params{
		ID:              doc.ID,
		Variant:         domproj.Variant(doc.Variant),
		Slug:            doc.Slug,
		GlobalSlug:      doc.GlobalSlug,
		Name:            doc.Name,
		Description:     doc.Description,
		Namespace:       doc.Namespace,
		Visibility:      domproj.Visibility(doc.Visibility),
		Tags:            make([]tag.Tag, len(doc.Tags)),
		OwnerID:         doc.OwnerID,
		Stars:           doc.Stars,
		ForksCount:      doc.ForksCount,
		InputDataTypes:  doc.InputDataTypes,
		OutputDataTypes: doc.OutputDataTypes,
	}
	for i, t := range doc.Tags {
		params.Tags[i] = tag.Reconstruct(t.ID, t.Name, t.Public, t.OwnerID)
	}
	if pd := doc.Processor; pd != nil {
		params.Processor = &domproj.Processor{Type: domproj.ProcessorType(pd.Type)}
		if vd := pd.Version; vd != nil {
			v := &domproj.Version{ModelType: vd.ModelType, MLCategory: vd.MLCategory}
			if vd.PublishedAt != nil {
				at := time.UnixMilli(*vd.PublishedAt).UTC()
				v.FinishedAt = &at
			}
			params.Processor.Version = v
		}
	}
	return domproj.Reconstruct(params), nil
}

// nonNil keeps empty sets as [] in the document; the index skips null arrays.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
