package result

import (
	"regexp"
	"strings"
)

// FeeTier is a normalized fee label used for cost facets.
type FeeTier string

const (
	FeeFree         FeeTier = "Free"
	FeeSlidingScale FeeTier = "Sliding scale"
	FeeAnnual       FeeTier = "Annual fee"
	FeeMonthly      FeeTier = "Monthly fee"
	FeeWeekly       FeeTier = "Weekly fee"
	FeeDaily        FeeTier = "Daily fee"
	FeeFlat         FeeTier = "Flat fee"
	FeeOther        FeeTier = "Other"
)

// FeeTiers lists every tier NormalizeFee can return.
var FeeTiers = []FeeTier{
	FeeFree, FeeSlidingScale, FeeAnnual, FeeMonthly, FeeWeekly, FeeDaily, FeeFlat, FeeOther,
}

type feeRule struct {
	tier    FeeTier
	choices []string
	pattern *regexp.Regexp
}

// Checked in order; the first rule that matches a fee choice or the
// free-text explanation decides the tier.
var feeRules = []feeRule{
	{
		tier:    FeeFree,
		choices: []string{"free", "no fee", "no cost"},
		pattern: regexp.MustCompile(`\bfree\b|\bno (cost|charge|fees?)\b|\$0(\.00)?\b`),
	},
	{
		tier:    FeeSlidingScale,
		choices: []string{"sliding scale", "sliding fee scale"},
		pattern: regexp.MustCompile(`sliding|based on (income|ability)|income[- ]based`),
	},
	{
		tier:    FeeAnnual,
		pattern: regexp.MustCompile(`annual|yearly|per year|a year|/ ?(yr|year)\b`),
	},
	{
		tier:    FeeMonthly,
		pattern: regexp.MustCompile(`monthly|per month|a month|/ ?(mo|month)\b`),
	},
	{
		tier:    FeeWeekly,
		pattern: regexp.MustCompile(`weekly|per week|a week|/ ?(wk|week)\b`),
	},
	{
		tier:    FeeDaily,
		pattern: regexp.MustCompile(`daily|per (day|night|visit)|a day|nightly|/ ?(day|night)\b`),
	},
	{
		tier:    FeeFlat,
		choices: []string{"flat fee", "fee", "fixed fee"},
		pattern: regexp.MustCompile(`\$\s?\d|flat|\bfee\b`),
	},
}

// NormalizeFee maps a program's fee multiselect and its free-text explanation
// to exactly one FeeTier. Inputs that match no rule, including empty ones, are FeeOther.
func NormalizeFee(multiselect, other string) FeeTier {
	choices := make(map[string]bool)
	for _, c := range strings.Split(multiselect, ";") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			choices[c] = true
		}
	}
	text := strings.ToLower(strings.TrimSpace(other))

	for _, rule := range feeRules {
		for _, c := range rule.choices {
			if choices[c] {
				return rule.tier
			}
		}
		if text != "" && rule.pattern.MatchString(text) {
			return rule.tier
		}
	}
	return FeeOther
}
