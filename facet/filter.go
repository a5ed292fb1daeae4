package facet

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/result"
)

// OpenNowKey is the filter key selecting programs open now.
const OpenNowKey = "openNow"

// Filters is a facet selection: openNow plus item names per group.
// The zero value selects everything.
type Filters struct {
	OpenNow bool
	Items   map[string][]string
}

// ParseFilters parses a selection such as {"Language.Spanish": true, "openNow": true}.
// Keys are "<group>.<item>"; entries set to false are ignored.
func ParseFilters(data []byte) (Filters, error) {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return Filters{}, fmt.Errorf("%w: %w", ErrInvalidFilters, err)
	}
	return filtersFromMap(raw)
}

func filtersFromMap(raw map[string]bool) (Filters, error) {
	var f Filters
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if !raw[key] {
			continue
		}
		if key == OpenNowKey {
			f.OpenNow = true
			continue
		}
		group, item, ok := strings.Cut(key, ".")
		if !ok || group == "" || item == "" {
			return Filters{}, fmt.Errorf("%w: key %q is not <group>.<item>", ErrInvalidFilters, key)
		}
		f.Add(group, item)
	}
	return f, nil
}

// Add selects an item of a group.
func (f *Filters) Add(group, item string) {
	if f.Items == nil {
		f.Items = make(map[string][]string)
	}
	if !slices.Contains(f.Items[group], item) {
		f.Items[group] = append(f.Items[group], item)
	}
}

// IsEmpty reports whether the selection filters nothing.
func (f Filters) IsEmpty() bool {
	return !f.OpenNow && len(f.Items) == 0
}

// MarshalJSON writes the selection in the form ParseFilters reads.
func (f Filters) MarshalJSON() ([]byte, error) {
	raw := make(map[string]bool)
	if f.OpenNow {
		raw[OpenNowKey] = true
	}
	for group, items := range f.Items {
		for _, item := range items {
			raw[group+"."+item] = true
		}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads the form accepted by ParseFilters.
func (f *Filters) UnmarshalJSON(data []byte) error {
	parsed, err := ParseFilters(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Filter returns the results matching f, in their original order. openNow is
// a membership test. Items of one group are alternatives; groups must all match.
// A group absent from the summary matches nothing.
func (s *Summary) Filter(results []*result.Result, f Filters) []*result.Result {
	if f.IsEmpty() {
		return results
	}

	selections := make([]selection, 0, len(f.Items))
	for name, names := range f.Items {
		var sel selection
		if g := s.Group(name); g != nil {
			for _, n := range names {
				if it := g.Item(n); it != nil {
					sel.items = append(sel.items, it)
				}
			}
		}
		selections = append(selections, sel)
	}

	filtered := make([]*result.Result, 0, len(results))
	for _, res := range results {
		if f.OpenNow && !s.open[res.ID] {
			continue
		}
		if matchesAll(selections, res.ID) {
			filtered = append(filtered, res)
		}
	}
	return filtered
}

// selection holds the requested items of one group that exist in the summary.
type selection struct {
	items []*Item
}

func matchesAll(selections []selection, id core.ID) bool {
	for _, sel := range selections {
		matched := false
		for _, it := range sel.items {
			if it.ids[id] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
