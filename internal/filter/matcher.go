// Package filter scores postings against the job seeker's profile.
package filter

import (
	"regexp"
	"strings"
	"time"

	"go-jobsearch-automation/internal/models"
)

var (
	keywordRegex    = regexp.MustCompile(`(?i)\b(golang|go\s+developer|go\s+backend|go|blockchain)\b`)
	excludeRegex    = regexp.MustCompile(`(?i)\b(senior|lead|manager|principal|staff|architect|(\d{2,}|[3-9])\s*(\+|plus)?\s*years?|2\+\s*years?)\b`)
	includeRegex    = regexp.MustCompile(`(?i)\b(fresher|intern|junior|entry[\s-]?level|graduate|trainee)\b`)
	techStackRegex  = regexp.MustCompile(`(?i)\b(docker|kubernetes|aws|gcp|microservices|rest\s*api|grpc|backend|back-end)\b`)
	experienceRegex = regexp.MustCompile(`(?i)\b([3-9]|\d{2,})\s*(\+|plus)?\s*(nam|years?|yoe)\b`)
)

// DefaultLocations are matched after folding.
var DefaultLocations = []string{"can tho", "remote", "tu xa", "ho chi minh", "hcm", "saigon", "sai gon", "tphcm"}

const MaxScore = 10

// Matcher decides whether a posting is worth storing.
type Matcher struct {
	// Locations earn the location bonus; nil means DefaultLocations.
	Locations []string
	MaxAge    time.Duration
	MinScore  int
	// Strict also applies the keyword, seniority and experience exclusions.
	Strict bool
	Now    func() time.Time
}

func jobText(job models.JobPosting) string {
	parts := []string{job.JobTitle, job.CompanyName}
	if job.JobDescription != nil {
		parts = append(parts, *job.JobDescription)
	}
	return Fold(strings.Join(parts, " "))
}

// Score rates a posting from 0 to MaxScore.
func (m *Matcher) Score(job models.JobPosting) int {
	score := 0
	text := jobText(job)

	if keywordRegex.MatchString(text) {
		score += 3
	}
	if includeRegex.MatchString(text) {
		score += 3
	}
	if job.JobLocation != nil && m.matchesLocation(Fold(*job.JobLocation)) {
		score += 2
	}
	if techStackRegex.MatchString(text) {
		score++
	}
	//penalty: exp >= 3 years
	if experienceRegex.MatchString(text) {
		score -= 5
	}

	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// ShouldInclude applies the hard exclusions: the posting must mention Go, must not be a
// senior role and must not ask for three or more years of experience.
func (m *Matcher) ShouldInclude(job models.JobPosting) bool {
	text := jobText(job)
	if !keywordRegex.MatchString(text) {
		return false
	}
	if excludeRegex.MatchString(text) {
		return false
	}
	return !experienceRegex.MatchString(text)
}

// Match scores job and reports whether it passes the minimum score, the recency check
// and, when Strict, the exclusions.
func (m *Matcher) Match(job models.JobPosting) (int, bool) {
	score := m.Score(job)
	if m.Strict && !m.ShouldInclude(job) {
		return score, false
	}
	if job.DatePosted != nil && !IsRecentJob(*job.DatePosted, m.now(), m.MaxAge) {
		return score, false
	}
	return score, score >= m.MinScore
}

func (m *Matcher) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Matcher) matchesLocation(location string) bool {
	locations := m.Locations
	if locations == nil {
		locations = DefaultLocations
	}
	for _, loc := range locations {
		if loc = Fold(strings.TrimSpace(loc)); loc != "" && strings.Contains(location, loc) {
			return true
		}
	}
	return false
}
