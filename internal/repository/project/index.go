package project

import "github.com/kailas-cloud/marketplace/internal/db"

// Index field aliases.
const (
	fieldID              = "id"
	fieldVariant         = "variant"
	fieldVisibility      = "visibility"
	fieldSlug            = "slug"
	fieldGlobalSlug      = "global_slug"
	fieldNameTag         = "name_tag"
	fieldNamespace       = "namespace"
	fieldOwnerID         = "owner_id"
	fieldStarsCount      = "stars_count"
	fieldForksCount      = "forks_count"
	fieldTagIDs          = "tag_ids"
	fieldInputDataTypes  = "input_data_types"
	fieldOutputDataTypes = "output_data_types"
	fieldProcessorType   = "processor_type"
	fieldModelType       = "version_model_type"
	fieldMLCategory      = "version_ml_category"
	fieldPublishedAt     = "version_published_at"
	fieldName            = "name"
	fieldDescription     = "description"
)

func keyPrefix(prefix string) string { return prefix + "project:" }

func indexName(prefix string) string { return prefix + "project:idx" }

func projectKey(prefix, id string) string { return keyPrefix(prefix) + id }

// buildIndex describes the project index. Tags without CaseSensitive fold case at
// index and query time; those fields only accept case-insensitive predicates.
func buildIndex(prefix string) *db.IndexDefinition {
	return db.NewIndex(indexName(prefix)).
		OnJSON().
		Prefix(keyPrefix(prefix)).
		Tag("$.id", fieldID, db.CaseSensitive(), db.Sortable()).
		Tag("$.variant", fieldVariant, db.CaseSensitive()).
		Tag("$.visibility", fieldVisibility, db.CaseSensitive()).
		Tag("$.slug", fieldSlug, db.Sortable()).
		Tag("$.global_slug", fieldGlobalSlug).
		Tag("$.name", fieldNameTag, db.Sortable()).
		Tag("$.namespace", fieldNamespace).
		Tag("$.owner_id", fieldOwnerID, db.CaseSensitive()).
		Numeric("$.stars_count", fieldStarsCount, db.Sortable()).
		Numeric("$.forks_count", fieldForksCount, db.Sortable()).
		Tag("$.tags[*].id", fieldTagIDs, db.CaseSensitive()).
		Tag("$.input_data_types[*]", fieldInputDataTypes, db.CaseSensitive()).
		Tag("$.output_data_types[*]", fieldOutputDataTypes, db.CaseSensitive()).
		Tag("$.processor.type", fieldProcessorType, db.CaseSensitive()).
		Tag("$.processor.version.model_type", fieldModelType).
		Tag("$.processor.version.ml_category", fieldMLCategory).
		Numeric("$.processor.version.published_at", fieldPublishedAt, db.IndexMissing()).
		Text("$.name", fieldName, db.Weight(2)).
		Text("$.description", fieldDescription).
		MustBuild()
}
