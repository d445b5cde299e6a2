package linkedin

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/scraper"
)

const (
	baseURL   = "https://www.linkedin.com"
	searchURL = baseURL + "/jobs/search/"
)

var experienceLevels = map[string]string{
	"internship":       "1",
	"entry_level":      "2",
	"associate":        "3",
	"mid_senior":       "4",
	"mid_senior_level": "4",
	"director":         "5",
	"executive":        "6",
}

var datePosted = map[string]string{
	"any_time":      "",
	"past_month":    "r2592000",
	"past_week":     "r604800",
	"past_24_hours": "r86400",
}

var sortOrders = map[string]string{
	"relevance": "R",
	"recent":    "DD",
}

// BuildSearchURL renders the search results URL for s. Unknown filter values are
// rejected with a validation error naming the field.
func BuildSearchURL(s scraper.Search) (string, error) {
	if strings.TrimSpace(s.Keywords) == "" {
		return "", apperrors.ValidationField("keywords", "search keywords are required")
	}
	q := url.Values{}
	q.Set("keywords", strings.TrimSpace(s.Keywords))
	if loc := strings.TrimSpace(s.Location); loc != "" {
		q.Set("location", loc)
	}

	if len(s.ExperienceLevels) > 0 {
		var codes []string
		seen := map[string]bool{}
		for _, level := range s.ExperienceLevels {
			code, ok := experienceLevels[strings.ToLower(strings.TrimSpace(level))]
			if !ok {
				return "", apperrors.ValidationField("experience_levels", fmt.Sprintf("unknown experience level %q", level))
			}
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
		q.Set("f_E", strings.Join(codes, ","))
	}

	if s.DatePosted != "" {
		code, ok := datePosted[strings.ToLower(s.DatePosted)]
		if !ok {
			return "", apperrors.ValidationField("date_posted", fmt.Sprintf("unknown date posted filter %q", s.DatePosted))
		}
		if code != "" {
			q.Set("f_TPR", code)
		}
	}

	if s.SortBy != "" {
		code, ok := sortOrders[strings.ToLower(s.SortBy)]
		if !ok {
			return "", apperrors.ValidationField("sort_by", fmt.Sprintf("unknown sort order %q", s.SortBy))
		}
		q.Set("sortBy", code)
	}

	return searchURL + "?" + strings.ReplaceAll(q.Encode(), "+", "%20"), nil
}

var jobIDPattern = regexp.MustCompile(`/jobs/view/(?:[^/?#]*-)?(\d+)`)

// CanonicalJobURL resolves href against linkedin.com and strips tracking query strings
// (refId, trackingId) so the same posting always yields the same URL. Links that are
// not job postings report false.
func CanonicalJobURL(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	base, _ := url.Parse(baseURL)
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if m := jobIDPattern.FindStringSubmatch(u.Path); m != nil {
		return fmt.Sprintf("%s/jobs/view/%s/", baseURL, m[1]), true
	}
	// Search pages link the selected card through currentJobId.
	if id := u.Query().Get("currentJobId"); id != "" {
		if _, err := strconv.ParseUint(id, 10, 64); err == nil {
			return fmt.Sprintf("%s/jobs/view/%s/", baseURL, id), true
		}
	}
	return "", false
}

var resultCountPattern = regexp.MustCompile(`([\d][\d,.\s]*)\+?\s*results?`)

// ParseResultCount extracts N from a results header such as "1,234 results". It returns
// 0 when the text carries no count.
func ParseResultCount(text string) int {
	m := resultCountPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
