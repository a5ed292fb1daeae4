package index

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MetersPerMile converts a radius in miles to the meters used by GeoRadiusFilter.
const MetersPerMile = 1609.344

var (
	geoPointPattern  = regexp.MustCompile(`^_geoPoint\(\s*(-?[0-9.]+)\s*,\s*(-?[0-9.]+)\s*\):(asc|desc)$`)
	geoRadiusPattern = regexp.MustCompile(`^_geoRadius\(\s*(-?[0-9.]+)\s*,\s*(-?[0-9.]+)\s*,\s*([0-9.]+)\s*\)$`)
	equalsPattern    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*"((?:[^"\\]|\\.)*)"$`)
)

// GeoPointSort returns the sort expression ordering hits by distance from lat,lng.
func GeoPointSort(lat, lng float64) string {
	return fmt.Sprintf("_geoPoint(%s,%s):asc", formatCoord(lat), formatCoord(lng))
}

// GeoRadiusFilter returns the filter expression keeping hits within meters of lat,lng.
func GeoRadiusFilter(lat, lng, meters float64) string {
	return fmt.Sprintf("_geoRadius(%s, %s, %s)", formatCoord(lat), formatCoord(lng), formatCoord(meters))
}

// EqualsFilter returns the filter expression keeping hits whose attribute equals value.
func EqualsFilter(attribute, value string) string {
	return fmt.Sprintf("%s = %s", attribute, strconv.Quote(value))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GeoPoint is a parsed GeoPointSort expression.
type GeoPoint struct {
	Lat, Lng   float64
	Descending bool
}

// ParseGeoPoint parses a GeoPointSort expression.
func ParseGeoPoint(expr string) (GeoPoint, error) {
	m := geoPointPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return GeoPoint{}, fmt.Errorf("%w: %q", ErrInvalidSort, expr)
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: %w", ErrInvalidSort, err)
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: %w", ErrInvalidSort, err)
	}
	return GeoPoint{Lat: lat, Lng: lng, Descending: m[3] == "desc"}, nil
}

// Filter is a parsed filter expression. Exactly one of Radius or Attribute is set.
type Filter struct {
	// Geo radius
	Lat, Lng, Radius float64

	// Attribute equality
	Attribute, Value string
}

// IsGeo reports whether f is a radius filter.
func (f Filter) IsGeo() bool {
	return f.Attribute == ""
}

// ParseFilter parses a GeoRadiusFilter or EqualsFilter expression.
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if m := geoRadiusPattern.FindStringSubmatch(expr); m != nil {
		var f Filter
		var err error
		if f.Lat, err = strconv.ParseFloat(m[1], 64); err != nil {
			return Filter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		if f.Lng, err = strconv.ParseFloat(m[2], 64); err != nil {
			return Filter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		if f.Radius, err = strconv.ParseFloat(m[3], 64); err != nil {
			return Filter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		return f, nil
	}
	if m := equalsPattern.FindStringSubmatch(expr); m != nil {
		value, err := strconv.Unquote(`"` + m[2] + `"`)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		return Filter{Attribute: m[1], Value: value}, nil
	}
	return Filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, expr)
}
