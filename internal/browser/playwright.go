// Package browser wraps playwright-go: browser launch with stealth settings, cookie
// loading, human-like pacing and debug screenshots.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	Chromium = "chromium"
	Firefox  = "firefox"
	WebKit   = "webkit"

	defaultTimeout = 20 * time.Second
	viewportWidth  = 1920
	viewportHeight = 1080
)

var userAgents = map[string]string{
	Chromium: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	Firefox:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	WebKit:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Chromium flags that make automation less visible to bot detection.
var chromiumArgs = []string{
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-blink-features=AutomationControlled",
	"--disable-features=VizDisplayCompositor",
	"--disable-extensions-file-access-check",
	"--disable-plugins-discovery",
}

const hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Options configures NewPlaywright.
type Options struct {
	// Browser is chromium (default), firefox or webkit.
	Browser  string
	Headless bool
	// Timeout is the default timeout of every page operation.
	Timeout time.Duration
	// UserAgent overrides the per-browser default.
	UserAgent string
	Logger    *slog.Logger
}

// SupportedBrowser reports whether name is a browser NewPlaywright can launch.
func SupportedBrowser(name string) bool {
	_, ok := userAgents[strings.ToLower(name)]
	return ok || name == ""
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *slog.Logger
}

// NewPlaywright starts the playwright driver and launches the configured browser.
func NewPlaywright(ctx context.Context, opts Options) (*PlaywrightManager, error) {
	if opts.Browser == "" {
		opts.Browser = Chromium
	}
	opts.Browser = strings.ToLower(opts.Browser)
	if !SupportedBrowser(opts.Browser) {
		return nil, fmt.Errorf("unsupported browser %q (supported: chromium, firefox, webkit)", opts.Browser)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	var bt playwright.BrowserType
	switch opts.Browser {
	case Firefox:
		bt = pw.Firefox
		launch.Args = []string{"--disable-blink-features=AutomationControlled"}
	case WebKit:
		bt = pw.WebKit
	default:
		bt = pw.Chromium
		launch.Args = chromiumArgs
	}

	b, err := bt.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %w", opts.Browser, err)
	}
	opts.Logger.Info("browser launched", slog.String("browser", opts.Browser), slog.Bool("headless", opts.Headless))
	return &PlaywrightManager{pw: pw, browser: b, opts: opts, logger: opts.Logger}, nil
}

// NewContext opens an isolated browser context with the stealth user agent, a desktop
// viewport and the given cookies.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ua := pm.opts.UserAgent
	if ua == "" {
		ua = userAgents[pm.opts.Browser]
	}
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(ua),
		Viewport:  &playwright.Size{Width: viewportWidth, Height: viewportHeight},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(pm.opts.Timeout.Milliseconds()))

	if pm.opts.Browser != WebKit {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriverScript)}); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not install init script: %w", err)
		}
	}
	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return bctx, nil
}

// Timeout returns the default page operation timeout in milliseconds, as playwright expects.
func (pm *PlaywrightManager) Timeout() float64 {
	return float64(pm.opts.Timeout.Milliseconds())
}

// Close shuts the browser and the playwright driver down.
func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
