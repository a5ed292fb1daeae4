package facet

import (
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/result"
)

// DefaultTimezone is the reference timezone for opening hours.
const DefaultTimezone = "Pacific/Honolulu"

// Group names. They are also the prefixes of filter keys.
const (
	GroupLanguage = "Language"
	GroupAge      = "Age"
	GroupCost     = "Cost"
)

// Item is one value of a group.
type Item struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int    `json:"count"`

	ids map[core.ID]bool
}

// Group is a named list of items.
type Group struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Items []*Item `json:"items"`
}

// Summary is the facet breakdown of one result set.
type Summary struct {
	OpenNow bool     `json:"openNow"`
	Groups  []*Group `json:"groups"`

	open map[core.ID]bool
}

// Group returns the named group, or nil when the result set had no values for it.
func (s *Summary) Group(name string) *Group {
	for _, g := range s.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Item returns the named item of the group, or nil.
func (g *Group) Item(name string) *Item {
	for _, it := range g.Items {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// Engine computes facet summaries.
type Engine struct {
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithTimezone sets the reference timezone by IANA name.
func WithTimezone(name string) Option {
	return func(e *Engine) error {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
		}
		e.location = loc
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		e.now = now
		return nil
	}
}

// NewEngine creates an Engine using DefaultTimezone unless overridden.
func NewEngine(opts ...Option) (*Engine, error) {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
	}
	e := &Engine{
		location: loc,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Location returns the reference timezone.
func (e *Engine) Location() *time.Location {
	return e.location
}

type bucket struct {
	items map[string]*Item
}

func (b *bucket) add(name string, id core.ID) {
	if b.items == nil {
		b.items = make(map[string]*Item)
	}
	it, ok := b.items[name]
	if !ok {
		it = &Item{Name: name, ids: make(map[core.ID]bool)}
		b.items[name] = it
	}
	if !it.ids[id] {
		it.ids[id] = true
		it.Count++
	}
}

func (b *bucket) list() []*Item {
	items := make([]*Item, 0, len(b.items))
	for _, it := range b.items {
		items = append(items, it)
	}
	return items
}

// Compute builds the summary of results. Results without raw entities are
// ignored. Labels come from dict and ordering follows the collation of language.
func (e *Engine) Compute(results []*result.Result, language string, dict i18n.Dictionary) *Summary {
	now := e.now().In(e.location)
	summary := &Summary{open: make(map[core.ID]bool)}

	var languages, ages, costs bucket
	for _, res := range results {
		raw := res.Raw()
		if raw == nil {
			continue
		}
		p := raw.Program

		if IsOpen(p, now) {
			summary.open[res.ID] = true
		}
		for _, token := range LanguageTokens(p) {
			languages.add(token, res.ID)
		}
		if age := result.AgeRestriction(p, p.AgeOther); age != "" {
			ages.add(age, res.ID)
		}
		if strings.TrimSpace(p.Fees) != "" || strings.TrimSpace(p.FeesOther) != "" {
			costs.add(string(result.NormalizeFee(p.Fees, p.FeesOther)), res.ID)
		}
	}
	summary.OpenNow = len(summary.open) > 0

	compare := i18n.Compare(language)

	if items := languages.list(); len(items) > 0 {
		for _, it := range items {
			it.Label = dict.T(it.Name)
		}
		slices.SortFunc(items, func(a, b *Item) int {
			// Phrases such as "Sign language" go after single words
			pa, pb := strings.Contains(a.Name, " "), strings.Contains(b.Name, " ")
			if pa != pb {
				if pa {
					return 1
				}
				return -1
			}
			return cmpLabels(compare, a, b)
		})
		summary.Groups = append(summary.Groups, &Group{Name: GroupLanguage, Label: dict.T(GroupLanguage), Items: items})
	}

	if items := ages.list(); len(items) > 0 {
		for _, it := range items {
			it.Label = result.RenderAge(it.Name, dict)
		}
		slices.SortFunc(items, func(a, b *Item) int {
			na, oka := FirstAge(a.Name)
			nb, okb := FirstAge(b.Name)
			switch {
			case oka && okb && na != nb:
				return cmp.Compare(na, nb)
			case oka != okb:
				if oka {
					return -1
				}
				return 1
			}
			return cmpLabels(compare, a, b)
		})
		summary.Groups = append(summary.Groups, &Group{Name: GroupAge, Label: dict.T(GroupAge), Items: items})
	}

	if items := costs.list(); len(items) > 0 {
		for _, it := range items {
			it.Label = dict.T(it.Name)
		}
		slices.SortFunc(items, func(a, b *Item) int { return cmpLabels(compare, a, b) })
		summary.Groups = append(summary.Groups, &Group{Name: GroupCost, Label: dict.T(GroupCost), Items: items})
	}

	e.logger.Debug("computed facets", "results", len(results), "open", len(summary.open), "groups", len(summary.Groups))
	return summary
}

// cmpLabels orders by label, then by name so equal labels stay deterministic.
func cmpLabels(compare func(a, b string) int, a, b *Item) int {
	if c := compare(a.Label, b.Label); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// LanguageTokens returns the distinct languages of a program, from the
// untranslated language fields.
func LanguageTokens(p *core.Program) []string {
	text := result.Languages(p.Languages, p.LanguagesText, nil)
	var tokens []string
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if token != "" && !slices.Contains(tokens, token) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d+)\+$`),
	regexp.MustCompile(`^` + result.LabelUnder + ` (\d+)$`),
	regexp.MustCompile(`^(\d+)-\d+$`),
}

// FirstAge extracts the age an age restriction starts from: N in "N+",
// "Under N" and "N-M".
func FirstAge(restriction string) (int, bool) {
	for _, p := range agePatterns {
		if m := p.FindStringSubmatch(restriction); m != nil {
			n, err := strconv.Atoi(m[1])
			return n, err == nil
		}
	}
	return 0, false
}
