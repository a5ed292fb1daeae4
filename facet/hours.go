package facet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/carefind/core"
)

var timePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm|a\.m\.|p\.m\.)?$`)

// ParseTimeString converts a stored time such as "8:00 am" or "4:30PM" to a
// zero-padded 24-hour "HHMM" string. "noon" and "midnight" are accepted.
func ParseTimeString(s string) (string, bool) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch s {
	case "":
		return "", false
	case "noon":
		return "1200", true
	case "midnight":
		return "0000", true
	}

	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch strings.ReplaceAll(m[3], ".", "") {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d%02d", hour, minute), true
}

// IsOpen reports whether p is open at now. now should already be in the
// reference timezone.
//
// A window whose close is not after its open never matches, so overnight
// hours such as 10:00 pm - 2:00 am are reported closed.
func IsOpen(p *core.Program, now time.Time) bool {
	if p.Open247 {
		return true
	}
	hours := p.Hours[core.WeekdayOf(now.Weekday())]
	open, ok := ParseTimeString(hours.Open)
	if !ok {
		return false
	}
	closing, ok := ParseTimeString(hours.Close)
	if !ok {
		return false
	}
	current := now.Format("1504")
	return open <= current && current < closing
}
