package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge is how old a posting may be and still count as recent.
const DefaultMaxAge = 60 * 24 * time.Hour

var (
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	yearOnlyRegex = regexp.MustCompile(`\b(20\d{2})\b`)
	relativeRegex = regexp.MustCompile(`(\d+)\+?\s*(minutes?|mins?|hours?|hrs?|days?|weeks?|months?|years?|phut|gio|ngay|tuan|thang|nam)\b`)
)

// PostedAt resolves a posted date to an absolute time. It understands ISO dates,
// dd/mm/yyyy and relative forms such as "3 days ago", "2 weeks ago" or "5 ngày trước".
func PostedAt(dateStr string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(Fold(dateStr))
	if s == "" {
		return time.Time{}, false
	}

	//case 1: ISO format "2026-01-27" or 2026-01-27T...
	if isoDateRegex.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}

	//case 2: dd/mm/yyyy
	if parts := strings.Split(s, "/"); len(parts) >= 3 {
		day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 == nil && err2 == nil && err3 == nil {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}

	//case 3: relative
	switch {
	case strings.Contains(s, "just now"), strings.Contains(s, "today"), strings.Contains(s, "hom nay"):
		return now, true
	case strings.Contains(s, "yesterday"), strings.Contains(s, "hom qua"):
		return now.Add(-24 * time.Hour), true
	}
	if m := relativeRegex.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.Add(-time.Duration(n) * unitDuration(m[2])), true
	}
	return time.Time{}, false
}

func unitDuration(unit string) time.Duration {
	const day = 24 * time.Hour
	switch {
	case strings.HasPrefix(unit, "min"), unit == "phut":
		return time.Minute
	case strings.HasPrefix(unit, "h"), unit == "gio":
		return time.Hour
	case strings.HasPrefix(unit, "w"), unit == "tuan":
		return 7 * day
	case strings.HasPrefix(unit, "mo"), unit == "thang":
		return 30 * day
	case strings.HasPrefix(unit, "y"), unit == "nam":
		return 365 * day
	default:
		return day
	}
}

// IsRecentJob reports whether a posting dated dateStr is at most maxAge old at now.
// Dates it cannot read count as recent.
func IsRecentJob(dateStr string, now time.Time, maxAge time.Duration) bool {
	if dateStr == "" || dateStr == "N/A" || dateStr == "Recent" {
		return true
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if t, ok := PostedAt(dateStr, now); ok {
		return isWithin(now, t, maxAge)
	}

	//year only fallback
	if match := yearOnlyRegex.FindStringSubmatch(dateStr); match != nil {
		year, _ := strconv.Atoi(match[1])
		return year == now.Year() || year == now.Year()-1
	}
	return true
}

func isWithin(now, jobDate time.Time, maxAge time.Duration) bool {
	diff := now.Sub(jobDate)
	if diff > maxAge {
		return false
	}
	//reject if future date >2 days (timezone issues)
	if diff < -2*24*time.Hour {
		return false
	}
	return true
}
