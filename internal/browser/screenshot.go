package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger saves full-page screenshots when a scrape step fails.
type ScreenshotDebugger struct {
	outputDir string
	logger    *slog.Logger
}

func NewScreenshotDebugger(dir string, logger *slog.Logger) *ScreenshotDebugger {
	if dir == "" {
		dir = filepath.Join("logs", "screenshots")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenshotDebugger{outputDir: dir, logger: logger}
}

// Capture writes <dir>/<name>_<timestamp>.png and returns its path.
func (s *ScreenshotDebugger) Capture(page playwright.Page, name, message string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot directory: %w", err)
	}
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05")))

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warn("failed to capture screenshot", slog.String("name", name), slog.Any("error", err))
		return "", err
	}
	s.logger.Info(message, slog.String("screenshot", path))
	return path, nil
}
