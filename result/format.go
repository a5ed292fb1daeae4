package result

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
)

// Label keys looked up in the label dictionaries.
const (
	LabelEnglish    = "English"
	LabelOpen247    = "Open 24/7"
	LabelAllIslands = "All islands"
	LabelClosed     = "Closed"
	LabelOpensAt    = "opens at"
	LabelClosesAt   = "closes at"
	LabelUnder      = "Under"
	LabelAt         = "at"
)

// Picklist values stored on programs.
const (
	LanguagesEnglishOnly     = "English Only"
	LanguagesEnglishAndOther = "English and Other (Specify)"
	IntakeOtherChoice        = "Other (specify)"
	FeeOtherChoice           = "Other"
)

// Address returns the display address of a site, or "" when the site is
// confidential or has no street.
func Address(s *core.Site) string {
	if s.Confidential || s.Street == "" {
		return ""
	}
	address := s.Street
	if s.Suite != "" {
		address += " " + s.Suite
	}
	if s.City != "" {
		address += ", " + s.City
		if s.State != "" {
			address += " " + s.State
			if s.ZipCode != "" {
				address += " " + s.ZipCode
			}
		}
	}
	return address
}

// Coordinates returns the site location when it may be shown.
func Coordinates(s *core.Site) (lat, lng float64, ok bool) {
	if s.Confidential || s.Street == "" || !s.HasLocation {
		return 0, 0, false
	}
	return s.Latitude, s.Longitude, true
}

// Languages renders the language fields of a program. picklist is the raw
// stored value; text is the free-text list, possibly translated.
func Languages(picklist, text string, dict i18n.Dictionary) string {
	switch picklist {
	case LanguagesEnglishOnly:
		return dict.T(LabelEnglish)
	case LanguagesEnglishAndOther:
		others := strings.Replace(text, "English and ", "", 1)
		others = strings.Replace(others, "English, ", "", 1)
		others = strings.Replace(others, "English; ", "", 1)
		return dict.T(LabelEnglish) + ", " + others
	case "":
		return text
	default:
		return dict.T(picklist)
	}
}

// ApplicationProcess renders the intake multiselect as a set, replacing the
// "other" choice with its free text.
func ApplicationProcess(multiselect, other string) string {
	if multiselect == "" {
		return ""
	}
	seen := make(map[string]bool)
	var items []string
	hasOther := false
	for _, item := range strings.Split(multiselect, ";") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		if item == IntakeOtherChoice {
			hasOther = true
			continue
		}
		items = append(items, item)
	}
	if other = strings.TrimSpace(other); hasOther && other != "" && !seen[other] {
		items = append(items, other)
	}
	return strings.Join(items, ", ")
}

// Fees renders the fee multiselect, replacing the "other" choice with its free text.
func Fees(multiselect, other string) string {
	if multiselect == "" {
		return ""
	}
	var fees []string
	hasOther := false
	for _, fee := range strings.Split(multiselect, ";") {
		fee = strings.TrimSpace(fee)
		if fee == FeeOtherChoice {
			hasOther = true
			continue
		}
		if fee != "" {
			fees = append(fees, fee)
		}
	}
	if other = strings.TrimSpace(other); hasOther && other != "" {
		fees = append(fees, other)
	}
	return strings.Join(fees, "; ")
}

// HasHours reports whether any weekday has an open or close time.
func HasHours(p *core.Program) bool {
	for _, h := range p.Hours {
		if h.Open != "" || h.Close != "" {
			return true
		}
	}
	return false
}

// DayLine renders one weekday of a schedule. Spaces are removed from the times.
func DayLine(day core.Weekday, h core.DayHours, dict i18n.Dictionary) string {
	open := strings.ReplaceAll(h.Open, " ", "")
	closing := strings.ReplaceAll(h.Close, " ", "")
	name := dict.T(day.String())

	switch {
	case open != "" && closing != "":
		return fmt.Sprintf("%s: %s - %s", name, open, closing)
	case open != "":
		return fmt.Sprintf("%s: %s %s", name, dict.T(LabelOpensAt), open)
	case closing != "":
		return fmt.Sprintf("%s: %s %s", name, dict.T(LabelClosesAt), closing)
	default:
		return fmt.Sprintf("%s: %s", name, dict.T(LabelClosed))
	}
}

// Schedule renders the weekly hours of a program followed by its notes.
func Schedule(p *core.Program, notes string, dict i18n.Dictionary) string {
	if p.Open247 {
		return dict.T(LabelOpen247)
	}
	notes = strings.TrimSpace(notes)
	if !HasHours(p) {
		return notes
	}

	lines := make([]string, 0, len(core.Weekdays))
	for _, day := range core.Weekdays {
		lines = append(lines, DayLine(day, p.Hours[day], dict))
	}
	schedule := strings.Join(lines, "\n")
	if notes != "" {
		schedule += "\n\n" + notes
	}
	return schedule
}

// AgeRestriction returns the canonical, untranslated age restriction of a
// program, or "" when the program has none. other is the free-text override.
func AgeRestriction(p *core.Program, other string) string {
	if !strings.HasPrefix(p.AgeRestricted, "Yes") {
		return ""
	}
	hasMin := p.AgeMinimum > 0
	hasMax := p.AgeMaximum > 0 && p.AgeMaximum != core.NoAgeMaximum

	switch {
	case hasMin && hasMax:
		return strconv.Itoa(p.AgeMinimum) + "-" + strconv.Itoa(p.AgeMaximum)
	case hasMin:
		return strconv.Itoa(p.AgeMinimum) + "+"
	case hasMax:
		return LabelUnder + " " + strconv.Itoa(p.AgeMaximum+1)
	default:
		return strings.TrimSpace(other)
	}
}

// RenderAge translates the words of a canonical age restriction.
func RenderAge(canonical string, dict i18n.Dictionary) string {
	if rest, ok := strings.CutPrefix(canonical, LabelUnder+" "); ok {
		return dict.T(LabelUnder) + " " + rest
	}
	return canonical
}

// ServiceArea renders a program's service area. The "all islands" check runs
// on the raw value; display text comes from translated.
func ServiceArea(raw, translated string, dict i18n.Dictionary) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(raw), "all islands") {
		return dict.T(LabelAllIslands)
	}
	return strings.ReplaceAll(translated, ";", ", ")
}
