// Package scraper defines the contract every job board integration implements.
package scraper

import (
	"context"

	"go-jobsearch-automation/internal/models"
	"go-jobsearch-automation/internal/scroll"
)

// Search describes one job search on a source.
type Search struct {
	Keywords string
	Location string
	// ExperienceLevels: internship, entry_level, associate, mid_senior, director, executive.
	ExperienceLevels []string
	// DatePosted: any_time, past_month, past_week, past_24_hours.
	DatePosted string
	// SortBy: relevance or recent.
	SortBy   string
	MaxPages int
}

// Source is a job board. CollectLinks gathers posting URLs from search results and
// Extract turns one posting URL into a raw record for the store.
type Source interface {
	Name() string
	CollectLinks(ctx context.Context, search Search) (scroll.PagedResult, error)
	Extract(ctx context.Context, url string) (models.RawRecord, error)
}
