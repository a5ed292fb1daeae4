package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/carefind/cache"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/facet"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/result"
)

// Input is a directory query.
type Input struct {
	// SearchText is free text or an exact taxonomy code.
	SearchText string `json:"searchText,omitempty"`
	// Taxonomies is a comma-separated list of taxonomy codes. A trailing '*'
	// selects every active taxonomy whose code starts with the rest.
	Taxonomies string `json:"taxonomies,omitempty"`
	// ZipCode is carried into the cache key and analytics. It does not filter sites.
	ZipCode string `json:"zipCode,omitempty"`
	// Radius in miles around Lat, Lng. Zero means no radius.
	Radius float64  `json:"radius,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	// Filters selects facet items. They never change the cached result set.
	Filters facet.Filters `json:"filters"`
}

// HasLocation reports whether both coordinates are set.
func (in Input) HasLocation() bool {
	return in.Lat != nil && in.Lng != nil
}

func (in Input) validate() error {
	if (in.Lat == nil) != (in.Lng == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidLocation)
	}
	if in.HasLocation() && !core.ValidCoordinates(*in.Lat, *in.Lng) {
		return fmt.Errorf("%w: (%f, %f)", ErrInvalidLocation, *in.Lat, *in.Lng)
	}
	if in.Radius < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidRadius, in.Radius)
	}
	return nil
}

// Options change how a query runs without being part of it, except for
// Language and SearchTaxonomyIndex, which select different result sets.
type Options struct {
	// SearchTaxonomyIndex also matches free text against taxonomy names.
	SearchTaxonomyIndex bool
	// AnalyticsUserID enables empty-result events for this user.
	AnalyticsUserID string
	// Language of the results. Empty means the default language.
	Language string
}

// Handle identifies a cached result set.
type Handle string

// Response is the outcome of Search.
type Response struct {
	// Results are filtered when the input had filters. They are shared with
	// the cache and must not be modified.
	Results []*result.Result `json:"results"`
	Handle  Handle           `json:"handle"`
	// Total is the size of the unfiltered result set.
	Total int `json:"total"`
}

// query is the cache key of an input: everything but the filters.
type query struct {
	SearchText          string   `json:"searchText"`
	Taxonomies          string   `json:"taxonomies"`
	ZipCode             string   `json:"zipCode"`
	Radius              float64  `json:"radius"`
	Lat                 *float64 `json:"lat"`
	Lng                 *float64 `json:"lng"`
	Language            string   `json:"language"`
	SearchTaxonomyIndex bool     `json:"searchTaxonomyIndex"`
}

func newQuery(in Input, opts Options, defaultLanguage string) query {
	language := i18n.NormalizeLanguage(opts.Language)
	if language == "" {
		language = defaultLanguage
	}
	return query{
		SearchText:          strings.TrimSpace(in.SearchText),
		Taxonomies:          strings.TrimSpace(in.Taxonomies),
		ZipCode:             strings.TrimSpace(in.ZipCode),
		Radius:              in.Radius,
		Lat:                 in.Lat,
		Lng:                 in.Lng,
		Language:            language,
		SearchTaxonomyIndex: opts.SearchTaxonomyIndex,
	}
}

func (q query) hasLocation() bool {
	return q.Lat != nil && q.Lng != nil
}

// geoConstrained reports whether the query restricts sites. Only
// coordinates do; a zip code alone never narrows the result set.
func (q query) geoConstrained() bool {
	return q.hasLocation()
}

// handle fingerprints the normalized key.
func (q query) handle() (Handle, error) {
	key, err := cache.NormalizeKey(q)
	if err != nil {
		return "", err
	}
	return Handle(fmt.Sprintf("%016x", core.Fingerprint(key))), nil
}
