package analytics

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/carefind/core"
)

// JourneyGap is the longest pause between two activities of one search journey.
const JourneyGap = 60 * time.Minute

// Range is how far back trending searches look.
type Range string

const (
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
)

// ParseRange validates a range name. Empty means RangeMonth.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeMonth, nil
	case RangeWeek, RangeMonth, RangeQuarter:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
}

// Start returns the first day included in the range ending at now.
func (r Range) Start(now time.Time) time.Time {
	var start time.Time
	switch r {
	case RangeWeek:
		start = now.AddDate(0, 0, -7)
	case RangeQuarter:
		start = now.AddDate(0, -3, 0)
	default:
		start = now.AddDate(0, -1, 0)
	}
	y, m, d := start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, start.Location())
}

// TrendingOptions controls TrendingSearches.
type TrendingOptions struct {
	Range    Range
	MinCount int
	MaxShow  int
}

// DefaultTrendingOptions returns a one month range showing up to five
// terms searched at least twice.
func DefaultTrendingOptions() TrendingOptions {
	return TrendingOptions{Range: RangeMonth, MinCount: 2, MaxShow: 5}
}

func normalizeTerms(terms string) string {
	return strings.ToLower(strings.TrimSpace(terms))
}

// TrendingSearches returns the keyword searches made at least MinCount times
// within the range, most frequent first. Searches restricted to taxonomies
// are not counted.
func (r *Recorder) TrendingSearches(ctx context.Context, opts TrendingOptions) ([]string, error) {
	activities, err := r.repo.GetActivitiesSince(ctx, opts.Range.Start(r.now()))
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}

	counts := make(map[string]int)
	var order []string
	for _, a := range activities {
		if a.Event != core.EventSearchKeyword || a.Data[DataTaxonomies] != "" {
			continue
		}
		terms := normalizeTerms(a.Data[DataTerms])
		if terms == "" {
			continue
		}
		if counts[terms] == 0 {
			order = append(order, terms)
		}
		counts[terms]++
	}

	// Stable keeps first-seen order among equal counts
	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })

	var trending []string
	for _, terms := range order {
		if opts.MaxShow > 0 && len(trending) >= opts.MaxShow {
			break
		}
		if counts[terms] >= opts.MinCount {
			trending = append(trending, terms)
		}
	}
	return trending, nil
}

func isReferral(a *core.UserActivity) bool {
	return strings.HasPrefix(a.Event, core.EventReferralPrefix)
}

// Journeys groups the keyword searches of every user except excludeUserID
// into journeys: runs of searches that end in a referral, with no pause
// longer than JourneyGap. Runs that do not end in a referral are dropped.
// The referral is the last activity of each journey.
func (r *Recorder) Journeys(ctx context.Context, excludeUserID string) (map[string][][]*core.UserActivity, error) {
	activities, err := r.repo.GetActivitiesSince(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}

	byUser := make(map[string][]*core.UserActivity)
	for _, a := range activities {
		if a.UserId == "" || a.UserId == excludeUserID {
			continue
		}
		if a.Event == core.EventSearchKeyword || isReferral(a) {
			byUser[a.UserId] = append(byUser[a.UserId], a)
		}
	}

	timelines := make(map[string][][]*core.UserActivity)
	for user, list := range byUser {
		var journeys [][]*core.UserActivity
		var journey []*core.UserActivity
		var prev *core.UserActivity
		for _, a := range list {
			journey = append(journey, a)
			if isReferral(a) {
				if len(journey) > 1 {
					journeys = append(journeys, journey)
				}
				journey = nil
			} else if prev != nil && a.CreatedAt.Sub(prev.CreatedAt) > JourneyGap {
				journey = []*core.UserActivity{a}
			}
			prev = a
		}
		if len(journeys) > 0 {
			timelines[user] = journeys
		}
	}
	return timelines, nil
}

// RelatedSearches returns the terms other users searched after searchText on
// their way to a referral, in first-seen order.
func (r *Recorder) RelatedSearches(ctx context.Context, searchText, currentUserID string) ([]string, error) {
	searchText = normalizeTerms(searchText)
	if searchText == "" {
		return nil, nil
	}
	timelines, err := r.Journeys(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	users := make([]string, 0, len(timelines))
	for user := range timelines {
		users = append(users, user)
	}
	slices.Sort(users)

	var related []string
	for _, user := range users {
		for _, journey := range timelines[user] {
			found := false
			for _, a := range journey {
				if a.Event != core.EventSearchKeyword {
					continue
				}
				terms := normalizeTerms(a.Data[DataTerms])
				switch {
				case !found:
					found = terms == searchText
				case terms != "" && terms != searchText && !slices.Contains(related, terms):
					related = append(related, terms)
				}
			}
		}
	}
	return related, nil
}
