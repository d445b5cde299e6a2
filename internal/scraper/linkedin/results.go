package linkedin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-jobsearch-automation/internal/browser"
)

const (
	cardSelector      = "li[data-occludable-job-id], li.jobs-search-results__list-item, li.scaffold-layout__list-item"
	containerSelector = "ul.scaffold-layout__list-container, ul.jobs-search-results__list, .scaffold-layout__list, .jobs-search-results-list"
	totalSelector     = ".jobs-search-results-list__title-heading .t-12, .jobs-search-results-list__subtitle, .jobs-search-results-list__text"
	nextSelector      = "button.jobs-search-pagination__button--next, button[aria-label='View next page'], button.artdeco-pagination__button--next"

	// Each card resolves to its posting link, or to the occluded job id LinkedIn keeps
	// on placeholders that scrolled out of the virtualized list.
	cardLinksScript = `cards => cards.map(c => {
		const a = c.querySelector("a.job-card-container__link, a.job-card-list__title, a[href*='/jobs/view/']");
		if (a && a.getAttribute('href')) return a.getAttribute('href');
		const id = c.getAttribute('data-occludable-job-id') || c.getAttribute('data-job-id');
		return id ? '/jobs/view/' + id + '/' : '';
	})`
)

// ResultsPage drives a LinkedIn search results page. It implements scroll.PageLoader
// and scroll.Nudger.
type ResultsPage struct {
	page     playwright.Page
	logger   *slog.Logger
	navDelay [2]time.Duration
}

func NewResultsPage(page playwright.Page, logger *slog.Logger) *ResultsPage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsPage{page: page, logger: logger, navDelay: [2]time.Duration{3 * time.Second, 5 * time.Second}}
}

func (r *ResultsPage) CurrentCount(context.Context) (int, error) {
	return r.page.Locator(cardSelector).Count()
}

// Nudge scrolls the window half way down, which triggers the first render of the list.
func (r *ResultsPage) Nudge(context.Context) error {
	_, err := r.page.Evaluate("window.scrollTo(0, document.body.scrollHeight / 2)")
	return err
}

// RequestMore scrolls the last card into view. When that fails it scrolls the list
// container, and as a last resort the window.
func (r *ResultsPage) RequestMore(context.Context) error {
	cards := r.page.Locator(cardSelector)
	if n, err := cards.Count(); err == nil && n > 0 {
		err = cards.Last().ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
			Timeout: playwright.Float(5000),
		})
		if err == nil {
			return nil
		}
		r.logger.Debug("scroll to last card failed", slog.Any("error", err))
	}

	container := r.page.Locator(containerSelector).First()
	if n, _ := container.Count(); n > 0 {
		if _, err := container.Evaluate("el => { el.scrollTop = el.scrollHeight }", nil); err == nil {
			return nil
		}
	}
	_, err := r.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

// ExtractIDs returns the canonical posting URLs of all materialized cards.
func (r *ResultsPage) ExtractIDs(context.Context) ([]string, error) {
	raw, err := r.page.Locator(cardSelector).EvaluateAll(cardLinksScript)
	if err != nil {
		return nil, err
	}
	hrefs, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected card links result %T", raw)
	}
	ids := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		s, _ := h.(string)
		if u, ok := CanonicalJobURL(s); ok {
			ids = append(ids, u)
		}
	}
	return ids, nil
}

// ExpectedTotal reads the "N results" header, 0 when absent.
func (r *ResultsPage) ExpectedTotal() int {
	text, err := r.page.Locator(totalSelector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(3000),
	})
	if err != nil {
		r.logger.Debug("results header not found", slog.Any("error", err))
		return 0
	}
	return ParseResultCount(text)
}

func (r *ResultsPage) HasNextPage(context.Context) (bool, error) {
	btn := r.page.Locator(nextSelector).First()
	n, err := btn.Count()
	if err != nil || n == 0 {
		return false, err
	}
	visible, err := btn.IsVisible()
	if err != nil || !visible {
		return false, err
	}
	return btn.IsEnabled()
}

func (r *ResultsPage) GoToNextPage(ctx context.Context) (bool, error) {
	if err := r.page.Locator(nextSelector).First().Click(); err != nil {
		return false, err
	}
	if err := r.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return false, err
	}
	if err := browser.RandomDelay(ctx, r.navDelay[0], r.navDelay[1]); err != nil {
		return false, err
	}
	return true, nil
}
