// Package scroll collects item identifiers from incrementally revealed result lists
// (infinite scroll, "load more" buttons, paginated APIs) and decides when to stop.
package scroll

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	DefaultHardCap         = 100
	DefaultMaxAttempts     = 20
	DefaultStagnationLimit = 3
)

// Loader is a source of incrementally revealed items.
type Loader interface {
	// CurrentCount returns how many items are currently materialized.
	CurrentCount(ctx context.Context) (int, error)
	// RequestMore triggers loading of additional items. It must be safe to call when
	// nothing more can load.
	RequestMore(ctx context.Context) error
	// ExtractIDs returns identifiers for all materialized items, in any order.
	ExtractIDs(ctx context.Context) ([]string, error)
}

// Nudger is implemented by loaders whose first paint needs a trigger different from the
// steady-state RequestMore. Loaders without it get an extra RequestMore instead.
type Nudger interface {
	Nudge(ctx context.Context) error
}

// Reason records why a collection stopped.
type Reason string

const (
	ReasonExpectedTotal Reason = "expected_total"
	ReasonHardCap       Reason = "hard_cap"
	ReasonStagnation    Reason = "stagnation"
	ReasonMaxAttempts   Reason = "max_attempts"
	ReasonCanceled      Reason = "canceled"
)

// Options bounds a collection. Zero values select the package defaults; zero delays
// disable the wait between attempts.
type Options struct {
	// ExpectedTotal is the best-effort total reported by the source, 0 when unknown.
	ExpectedTotal   int
	HardCap         int
	MaxAttempts     int
	StagnationLimit int
	MinDelay        time.Duration
	MaxDelay        time.Duration
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.HardCap <= 0 {
		o.HardCap = DefaultHardCap
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.StagnationLimit <= 0 {
		o.StagnationLimit = DefaultStagnationLimit
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Result is the outcome of a collection. IDs keep first-seen order.
type Result struct {
	IDs []string
	// Attempts counts loop iterations, failed ones included.
	Attempts int
	// Failures counts attempts abandoned because the loader returned an error.
	Failures   int
	FinalCount int
	Reason     Reason
}

// Collect requests more items until the expected total or the hard cap is reached, the
// loaded count stops growing for StagnationLimit consecutive attempts, MaxAttempts is
// exhausted or ctx is done. Loader errors abandon the current attempt only; Collect
// never fails and an empty result is valid.
func Collect(ctx context.Context, loader Loader, opts Options) Result {
	opts = opts.withDefaults()
	log := opts.Logger

	seen := newOrderedSet()
	res := Result{Reason: ReasonMaxAttempts}
	stagnant := 0

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			res.Reason = ReasonCanceled
			break
		}
		res.Attempts = attempt

		newCount, progressed, err := runAttempt(ctx, loader, opts, seen)
		if err != nil {
			if ctx.Err() != nil {
				res.Reason = ReasonCanceled
				break
			}
			res.Failures++
			log.Warn("scroll attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
			continue
		}
		res.FinalCount = newCount

		log.Debug("scroll attempt",
			slog.Int("attempt", attempt),
			slog.Int("count", newCount),
			slog.Int("ids", seen.Len()),
			slog.Bool("progressed", progressed),
		)

		if opts.ExpectedTotal > 0 && newCount >= opts.ExpectedTotal {
			res.Reason = ReasonExpectedTotal
			break
		}
		if newCount >= opts.HardCap {
			res.Reason = ReasonHardCap
			break
		}
		if !progressed {
			stagnant++
			if stagnant >= opts.StagnationLimit {
				res.Reason = ReasonStagnation
				break
			}
		} else {
			stagnant = 0
		}
	}

	res.IDs = seen.Items()
	log.Info("scroll collection finished",
		slog.String("reason", string(res.Reason)),
		slog.Int("attempts", res.Attempts),
		slog.Int("failures", res.Failures),
		slog.Int("count", res.FinalCount),
		slog.Int("ids", len(res.IDs)),
	)
	return res
}

// runAttempt performs one request/extract cycle and reports the loaded count afterwards
// and whether it changed during the attempt. A shrinking count is progress too, since
// virtualized lists unmount cards as they scroll.
func runAttempt(ctx context.Context, loader Loader, opts Options, seen *orderedSet) (int, bool, error) {
	before, err := loader.CurrentCount(ctx)
	if err != nil {
		return 0, false, err
	}
	if before == 0 {
		if err := nudge(ctx, loader); err != nil {
			return 0, false, err
		}
	}
	if err := loader.RequestMore(ctx); err != nil {
		return 0, false, err
	}
	if err := sleep(ctx, randomDelay(opts.MinDelay, opts.MaxDelay)); err != nil {
		return 0, false, err
	}

	ids, err := loader.ExtractIDs(ctx)
	if err != nil {
		return 0, false, err
	}
	seen.Add(ids...)

	after, err := loader.CurrentCount(ctx)
	if err != nil {
		return 0, false, err
	}
	return after, after != before, nil
}

func nudge(ctx context.Context, loader Loader) error {
	if n, ok := loader.(Nudger); ok {
		return n.Nudge(ctx)
	}
	return loader.RequestMore(ctx)
}

func randomDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleep(ctx context.Context, d time.Duration) error {
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

// orderedSet deduplicates identifiers while keeping first-seen order.
type orderedSet struct {
	index map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.items = append(s.items, id)
		added++
	}
	return added
}

func (s *orderedSet) Len() int { return len(s.items) }

func (s *orderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
