package trial

import (
	"strings"

	"github.com/Josconicme/trial-insight/internal/db"
	"github.com/Josconicme/trial-insight/internal/domain"
)

// Query aliases of the indexed fields.
const (
	fieldNCTID          = "nctId"
	fieldStatus         = "status"
	fieldPhase          = "phase"
	fieldConditions     = "conditions"
	fieldSponsor        = "sponsor"
	fieldHasResults     = "resultsAvailable"
	fieldStartDate      = "startDate"
	fieldCompletionDate = "completionDate"
	fieldLastUpdate     = "lastUpdateDate"
	fieldStartYear      = "startYear"
	fieldGeo            = "geo"
	fieldVector         = "vector"
	fieldEmbedded       = "embedded"
	fieldSummarized     = "summarized"
	fieldGeocoded       = "geocoded"
)

// Tags holding free text (conditions, sponsor names) may contain commas.
const tagSeparator = "|"

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// IndexConfig describes the vector part of the trial index.
type IndexConfig struct {
	VectorDim int
	HNSW      HNSWConfig
}

// IndexName is the RediSearch index over all trial documents.
func IndexName() string {
	return domain.KeyPrefix + "trials:idx"
}

// KeyPrefix is the key prefix of trial documents.
func KeyPrefix() string {
	return domain.KeyPrefix + "trial:"
}

// Key returns the document key of a trial.
func Key(nctID string) string {
	return KeyPrefix() + nctID
}

// IDFromKey strips the key prefix.
func IDFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix())
}

// buildIndex creates the JSON index definition for trial documents.
func buildIndex(cfg IndexConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(IndexName()).
		OnJSON().
		Prefix(KeyPrefix()).
		Tag("$.nctId").As(fieldNCTID).
		// full text, BM25
		Text("$.title").As("title").
		Text("$.officialTitle").As("officialTitle").
		Text("$.conditions[*]").As("conditionsText").
		Text("$.interventions[*].name").As("interventions").
		Text("$.eligibility.criteria").As("criteria").
		Text("$.keywords[*]").As("keywords").
		// filters
		Tag("$.status").As(fieldStatus).WithSuffixTrie().
		TagWithOpts("$.phase[*]", "", true).As(fieldPhase).
		TagWithOpts("$.conditions[*]", tagSeparator, false).As(fieldConditions).WithSuffixTrie().
		TagWithOpts("$.sponsors.lead.name", tagSeparator, false).As(fieldSponsor).WithSuffixTrie().
		Tag("$.__hasResults").As(fieldHasResults).
		// derived
		Numeric("$.__startDate").As(fieldStartDate).Sortable().
		Numeric("$.__completionDate").As(fieldCompletionDate).Sortable().
		Numeric("$.__lastUpdateDate").As(fieldLastUpdate).Sortable().
		Numeric("$.__startYear").As(fieldStartYear).Sortable().
		Geo("$.__geo[*]").As(fieldGeo).
		// augmentation markers
		Tag("$.__embedded").As(fieldEmbedded).IndexMissing().
		Tag("$.__summarized").As(fieldSummarized).IndexMissing().
		Tag("$.__geocoded").As(fieldGeocoded).IndexMissing().
		VectorHNSW("$.embedding", cfg.VectorDim, db.DistanceCosine, cfg.HNSW.M, cfg.HNSW.EFConstruct).As(fieldVector).
		Build()
}
