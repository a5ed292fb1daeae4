package index

import (
	"context"

	"github.com/poiesic/carefind/core"
)

// Base index names. Each language gets its own index, see Name.
const (
	Programs   = "program"
	Taxonomies = "taxonomy"
	Sites      = "site"
)

// Attribute names stored on documents.
const (
	AttrID          = "id"
	AttrName        = "name"
	AttrCode        = "code"
	AttrDescription = "description"
	AttrKeywords    = "keywords"
	AttrZipCode     = "zipCode"
)

// Name returns the per-language index name for base.
func Name(base, language string) string {
	if language == "" {
		return base
	}
	return base + "_" + language
}

// Options controls a single index query.
type Options struct {
	// Limit caps the number of hits. Zero means the implementation default.
	Limit int
	// AttributesToRetrieve restricts Hit.Fields. Empty means all attributes.
	AttributesToRetrieve []string
	// Sort holds sort expressions such as GeoPointSort.
	Sort []string
	// Filter holds filter expressions such as GeoRadiusFilter and EqualsFilter.
	// All filters must match.
	Filter []string
}

// Hit is one matching document.
type Hit struct {
	ID     core.ID
	Fields map[string]string
	// Distance is the distance in meters from the geo sort point,
	// or -1 when the query had no geo sort.
	Distance float64
}

// Document is the unit of indexing.
type Document struct {
	ID     core.ID
	Fields map[string]string
	// Text is the searchable body. Fields are stored but not searched.
	Text        string
	HasLocation bool
	Latitude    float64
	Longitude   float64
}

// Searcher runs full-text and geo queries.
type Searcher interface {
	// Search returns hits for text in indexName. An empty text matches every document,
	// which is how geo-only site queries are expressed.
	Search(ctx context.Context, indexName, text string, opts Options) ([]Hit, error)
}

// Indexer maintains index contents.
type Indexer interface {
	// Index adds or replaces documents in indexName.
	Index(ctx context.Context, indexName string, docs ...Document) error
	// Delete removes documents from indexName. Unknown IDs are ignored.
	Delete(ctx context.Context, indexName string, ids ...core.ID) error
	// Clear removes every document from indexName.
	Clear(ctx context.Context, indexName string) error
}

// Index is a full-text/geo index.
type Index interface {
	Searcher
	Indexer
	Close() error
}
