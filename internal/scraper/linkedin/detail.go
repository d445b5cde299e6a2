package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-jobsearch-automation/internal/models"
)

const (
	detailReadySelector = ".job-details-jobs-unified-top-card__primary-description-container, .job-details-jobs-unified-top-card__job-title"
	titleSelector       = ".job-details-jobs-unified-top-card__job-title, h1"
	companySelector     = ".job-details-jobs-unified-top-card__company-name, .job-details-jobs-unified-top-card__subtitle"
	primaryDescSelector = ".job-details-jobs-unified-top-card__primary-description-container"
	bulletSelector      = ".job-details-jobs-unified-top-card__bullet, .job-details-jobs-unified-top-card__workplace-type"
	showMoreSelector    = `button[data-testid="expandable-text-button"], button.jobs-description__footer-button`
	descriptionSelector = `[data-testid="expandable-text-box"], #job-details, .jobs-description__content`
	insightSelector     = ".job-details-fit-level-preferences button, .job-details-jobs-unified-top-card__job-insight"
	applyButtonSelector = ".jobs-apply-button, button[aria-label*='Apply']"
	hirerSelector       = ".hirer-card__hirer-information"
	companyInfoSelector = ".jobs-company__company-description, .jobs-company__box p"

	maxInsightLength = 200
)

// ExtractDetail loads a posting in its own tab and returns its fields as a raw record,
// keyed the way the record store resolves them.
func ExtractDetail(ctx context.Context, bctx playwright.BrowserContext, jobURL string, timeout time.Duration) (models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(jobURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", jobURL, err)
	}
	return extractFromPage(page, jobURL, time.Now())
}

func extractFromPage(page playwright.Page, jobURL string, now time.Time) (models.RawRecord, error) {
	if _, err := page.WaitForSelector(detailReadySelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return nil, fmt.Errorf("job details not found: %w", err)
	}

	rec := models.RawRecord{
		"url":        jobURL,
		"source":     "linkedin",
		"scraped_at": now.UTC().Format(time.RFC3339),
	}
	setText(rec, "title", innerText(page.Locator(titleSelector).First()))
	setText(rec, "company", innerText(page.Locator(companySelector).First()))

	// "Ho Chi Minh City, Vietnam · 3 days ago · 120 applicants"
	if desc := innerText(page.Locator(primaryDescSelector).First()); desc != "" {
		parts := strings.Split(desc, "·")
		setText(rec, "location", parts[0])
		for _, p := range parts[1:] {
			if strings.Contains(strings.ToLower(p), "ago") {
				setText(rec, "date_posted", p)
				break
			}
		}
	} else {
		setText(rec, "location", innerText(page.Locator(bulletSelector).First()))
	}

	btn := page.Locator(showMoreSelector).First()
	if visible, _ := btn.IsVisible(); visible {
		_ = btn.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)})
		time.Sleep(500 * time.Millisecond)
	}
	setText(rec, "description", innerText(page.Locator(descriptionSelector).First()))

	if insights := allTexts(page.Locator(insightSelector)); len(insights) > 0 {
		rec["job_insights"] = insights
	}

	apply := page.Locator(applyButtonSelector).First()
	if n, _ := apply.Count(); n > 0 {
		label := strings.ToLower(innerText(apply))
		rec["easy_apply"] = strings.Contains(label, "easy apply")
	}

	if team := hiringTeam(page); len(team) > 0 {
		rec["hiring_team"] = team
	}
	setText(rec, "about_company", innerText(page.Locator(companyInfoSelector).First()))
	return rec, nil
}

func hiringTeam(page playwright.Page) []any {
	cards, err := page.Locator(hirerSelector).All()
	if err != nil {
		return nil
	}
	var team []any
	for _, c := range cards {
		member := map[string]any{}
		if name := innerText(c.Locator("strong, .jobs-poster__name").First()); name != "" {
			member["name"] = name
		}
		if title := innerText(c.Locator(".hirer-card__job-poster, .linked-area .text-body-small").First()); title != "" {
			member["title"] = title
		}
		if href, err := c.Locator("a").First().GetAttribute("href", playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(1000),
		}); err == nil && href != "" {
			member["profile_url"] = strings.Split(href, "?")[0]
		}
		if len(member) > 0 {
			team = append(team, member)
		}
	}
	return team
}

func innerText(loc playwright.Locator) string {
	if n, err := loc.Count(); err != nil || n == 0 {
		return ""
	}
	text, err := loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(2000)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func allTexts(loc playwright.Locator) []any {
	texts, err := loc.AllInnerTexts()
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []any
	for _, t := range texts {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" || len(t) > maxInsightLength || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func setText(rec models.RawRecord, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		rec[key] = v
	}
}
