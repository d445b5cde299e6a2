// Package linkedin collects job postings from LinkedIn search results with an
// authenticated browser context.
package linkedin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-jobsearch-automation/internal/browser"
	"go-jobsearch-automation/internal/models"
	"go-jobsearch-automation/internal/scraper"
	"go-jobsearch-automation/internal/scroll"
)

const (
	feedURL          = baseURL + "/feed/"
	navTimeout       = 30 * time.Second
	listReadyTimeout = 15 * time.Second
)

type Options struct {
	// Scroll configures the per-page collector. ExpectedTotal is overwritten with the
	// count read from the results header when it is present.
	Scroll scroll.Options
	// SkipLogin skips the feed warm-up and the logged-in check.
	SkipLogin   bool
	Screenshots *browser.ScreenshotDebugger
	Logger      *slog.Logger
}

// Scraper implements scraper.Source over a single search tab. Detail pages open in
// their own tabs of the same browser context.
type Scraper struct {
	bctx     playwright.BrowserContext
	page     playwright.Page
	opts     Options
	logger   *slog.Logger
	loggedIn bool
}

var _ scraper.Source = (*Scraper)(nil)

func New(bctx playwright.BrowserContext, opts Options) (*Scraper, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create search page: %w", err)
	}
	return &Scraper{bctx: bctx, page: page, opts: opts, logger: opts.Logger.With(slog.String("source", "linkedin"))}, nil
}

func (s *Scraper) Name() string {
	return "LinkedIn"
}

// ensureLogin warms the session up on the feed and checks that the global nav renders,
// which only happens for an authenticated session.
func (s *Scraper) ensureLogin(ctx context.Context) error {
	if s.loggedIn || s.opts.SkipLogin {
		return nil
	}
	s.logger.Info("navigating to feed for warm-up")
	if _, err := s.page.Goto(feedURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("failed to load linkedin feed: %w", err)
	}
	if _, err := s.page.WaitForSelector("#global-nav", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		s.capture("linkedin_login")
		return fmt.Errorf("login verification failed - global nav not found: %w", err)
	}
	s.logger.Info("login confirmed")
	s.loggedIn = true

	if err := browser.RandomDelay(ctx, 2*time.Second, 4*time.Second); err != nil {
		return err
	}
	return browser.MouseJiggle(ctx, s.page)
}

// CollectLinks runs the search and gathers canonical posting URLs over up to
// search.MaxPages result pages.
func (s *Scraper) CollectLinks(ctx context.Context, search scraper.Search) (scroll.PagedResult, error) {
	target, err := BuildSearchURL(search)
	if err != nil {
		return scroll.PagedResult{}, err
	}
	if err := s.ensureLogin(ctx); err != nil {
		return scroll.PagedResult{}, err
	}

	s.logger.Info("visiting job search", slog.String("keywords", search.Keywords), slog.String("url", target))
	if _, err := s.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navTimeout.Milliseconds())),
	}); err != nil {
		return scroll.PagedResult{}, fmt.Errorf("failed to load job search page: %w", err)
	}
	if _, err := s.page.WaitForSelector(cardSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(listReadyTimeout.Milliseconds())),
	}); err != nil {
		// An empty result list is not an error; the collector will stop on stagnation.
		s.logger.Warn("job list not found or empty", slog.Any("error", err))
		s.capture("linkedin_empty_list")
	}

	results := NewResultsPage(s.page, s.logger)
	opts := s.opts.Scroll
	opts.Logger = s.logger
	if total := results.ExpectedTotal(); total > 0 {
		opts.ExpectedTotal = total
	}
	s.logger.Info("collecting links", slog.Int("expected_total", opts.ExpectedTotal), slog.Int("max_pages", search.MaxPages))

	res := scroll.CollectPaginated(ctx, results, opts, search.MaxPages)
	s.logger.Info("links collected", slog.Int("links", len(res.IDs)), slog.String("reason", string(res.Reason)))
	if res.Reason == scroll.PageReasonCanceled {
		return res, ctx.Err()
	}
	return res, nil
}

func (s *Scraper) Extract(ctx context.Context, url string) (models.RawRecord, error) {
	rec, err := ExtractDetail(ctx, s.bctx, url, navTimeout)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", url, err)
	}
	return rec, nil
}

func (s *Scraper) Close() error {
	return s.page.Close()
}

func (s *Scraper) capture(name string) {
	if s.opts.Screenshots == nil {
		return
	}
	_, _ = s.opts.Screenshots.Capture(s.page, name, "linkedin step failed")
}
