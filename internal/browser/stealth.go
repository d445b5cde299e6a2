package browser

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDuration returns a duration in [lo, hi].
func RandomDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

// RandomDelay waits for a random duration between lo and hi, or until ctx is done.
func RandomDelay(ctx context.Context, lo, hi time.Duration) error {
	d := RandomDuration(lo, hi)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HumanScroll scrolls down in half-viewport steps and then back up a little.
func HumanScroll(ctx context.Context, page playwright.Page) error {
	for i := 0; i < 5; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 500*time.Millisecond, 1500*time.Millisecond); err != nil {
			return err
		}
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// MouseJiggle moves the mouse to a few random points inside the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	size := page.ViewportSize()
	if size == nil || size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	for i := 0; i < 3; i++ {
		x := rand.IntN(size.Width)
		y := rand.IntN(size.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
