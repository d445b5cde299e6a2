package scroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRender = errors.New("render glitch")

// fakeLoader grows its materialized count by step on every RequestMore, up to limit
// (negative means unbounded).
type fakeLoader struct {
	count, step, limit int
	// window > 0 makes ExtractIDs return only the last window items, like a
	// virtualized list that unmounts scrolled-away cards.
	window      int
	failExtract func(call int) bool

	requests, extracts, nudges int
}

func (f *fakeLoader) CurrentCount(context.Context) (int, error) { return f.count, nil }

func (f *fakeLoader) RequestMore(context.Context) error {
	f.requests++
	f.count += f.step
	if f.limit >= 0 && f.count > f.limit {
		f.count = f.limit
	}
	return nil
}

func (f *fakeLoader) ExtractIDs(context.Context) ([]string, error) {
	f.extracts++
	if f.failExtract != nil && f.failExtract(f.extracts) {
		return nil, errRender
	}
	start := 0
	if f.window > 0 && f.count > f.window {
		start = f.count - f.window
	}
	ids := make([]string, 0, f.count-start)
	for i := start; i < f.count; i++ {
		ids = append(ids, fmt.Sprintf("job-%d", i))
	}
	return ids, nil
}

type nudgingLoader struct {
	*fakeLoader
}

func (n nudgingLoader) Nudge(context.Context) error {
	n.nudges++
	n.count = n.step
	return nil
}

func TestCollectStopsAtExpectedTotal(t *testing.T) {
	loader := &fakeLoader{step: 10, limit: 47}
	res := Collect(context.Background(), loader, Options{ExpectedTotal: 47, HardCap: 100, MaxAttempts: 20, StagnationLimit: 3})

	assert.Equal(t, ReasonExpectedTotal, res.Reason)
	assert.Equal(t, 47, res.FinalCount)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 5, loader.requests, "one nudge plus one request per attempt")
	assert.Len(t, res.IDs, 47)
}

func TestCollectStopsOnStagnation(t *testing.T) {
	loader := &fakeLoader{count: 12, limit: 12}
	res := Collect(context.Background(), loader, Options{ExpectedTotal: 0, MaxAttempts: 50, StagnationLimit: 3})

	assert.Equal(t, ReasonStagnation, res.Reason)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, res.IDs, 12)
	assert.Equal(t, "job-0", res.IDs[0])
	assert.Equal(t, "job-11", res.IDs[11])
}

func TestCollectStagnationResetsOnGrowth(t *testing.T) {
	// Grows on the first two attempts, then holds.
	loader := &fakeLoader{count: 5, step: 5, limit: 15}
	res := Collect(context.Background(), loader, Options{MaxAttempts: 50, StagnationLimit: 2})

	assert.Equal(t, ReasonStagnation, res.Reason)
	assert.Equal(t, 4, res.Attempts)
	assert.Len(t, res.IDs, 15)
}

// scriptedLoader reports counts[i] after the i-th RequestMore and holds the last value.
type scriptedLoader struct {
	counts []int
	i      int
}

func (s *scriptedLoader) CurrentCount(context.Context) (int, error) {
	return s.counts[min(s.i, len(s.counts)-1)], nil
}

func (s *scriptedLoader) RequestMore(context.Context) error {
	s.i++
	return nil
}

func (s *scriptedLoader) ExtractIDs(ctx context.Context) ([]string, error) {
	n, _ := s.CurrentCount(ctx)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("job-%d", i)
	}
	return ids, nil
}

func TestCollectShrinkingCountIsNotStagnation(t *testing.T) {
	loader := &scriptedLoader{counts: []int{10, 8, 6}}
	res := Collect(context.Background(), loader, Options{MaxAttempts: 50, StagnationLimit: 3})

	assert.Equal(t, ReasonStagnation, res.Reason)
	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, 6, res.FinalCount)
	assert.Len(t, res.IDs, 8)
}

func TestCollectStopsAtHardCap(t *testing.T) {
	loader := &fakeLoader{step: 15, limit: -1}
	res := Collect(context.Background(), loader, Options{HardCap: 100, MaxAttempts: 20, StagnationLimit: 3})

	assert.Equal(t, ReasonHardCap, res.Reason)
	assert.Equal(t, 6, res.Attempts)
	assert.GreaterOrEqual(t, res.FinalCount, 100)
	assert.LessOrEqual(t, res.FinalCount, 100+loader.step)
}

func TestCollectHonorsMaxAttemptsBeforeHardCap(t *testing.T) {
	loader := &fakeLoader{step: 15, limit: -1}
	res := Collect(context.Background(), loader, Options{HardCap: 100, MaxAttempts: 3})

	assert.Equal(t, ReasonMaxAttempts, res.Reason)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 60, res.FinalCount)
}

func TestCollectSurvivesLoaderFailures(t *testing.T) {
	loader := &fakeLoader{step: 5, limit: -1, window: 5, failExtract: func(call int) bool { return call%2 == 1 }}
	var res Result
	require.NotPanics(t, func() {
		res = Collect(context.Background(), loader, Options{HardCap: 1000, MaxAttempts: 6})
	})

	assert.Equal(t, ReasonMaxAttempts, res.Reason)
	assert.Equal(t, 6, res.Attempts)
	assert.Equal(t, 3, res.Failures)

	var want []string
	for _, window := range [][2]int{{10, 15}, {20, 25}, {30, 35}} {
		for i := window[0]; i < window[1]; i++ {
			want = append(want, fmt.Sprintf("job-%d", i))
		}
	}
	assert.Equal(t, want, res.IDs)
}

func TestCollectFailuresDoNotCountAsStagnation(t *testing.T) {
	loader := &fakeLoader{count: 3, limit: 3, failExtract: func(int) bool { return true }}
	res := Collect(context.Background(), loader, Options{MaxAttempts: 5, StagnationLimit: 2})

	assert.Equal(t, ReasonMaxAttempts, res.Reason)
	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, 5, res.Failures)
	assert.Empty(t, res.IDs)
}

func TestCollectEmptySource(t *testing.T) {
	loader := &fakeLoader{limit: 0}
	res := Collect(context.Background(), loader, Options{MaxAttempts: 10, StagnationLimit: 3})

	assert.Equal(t, ReasonStagnation, res.Reason)
	assert.Empty(t, res.IDs)
	assert.Equal(t, 6, loader.requests, "nudged on every attempt while nothing rendered")
}

func TestCollectUsesNudger(t *testing.T) {
	base := &fakeLoader{step: 4, limit: 8}
	res := Collect(context.Background(), nudgingLoader{base}, Options{ExpectedTotal: 8, MaxAttempts: 5})

	assert.Equal(t, ReasonExpectedTotal, res.Reason)
	assert.Equal(t, 1, base.nudges)
	assert.Equal(t, 1, base.requests)
}

func TestCollectCanceled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := Collect(ctx, &fakeLoader{step: 1, limit: -1}, Options{})
		assert.Equal(t, ReasonCanceled, res.Reason)
		assert.Zero(t, res.Attempts)
	})

	t.Run("during delay", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		start := time.Now()
		res := Collect(ctx, &fakeLoader{count: 2, step: 1, limit: -1}, Options{MinDelay: time.Hour, MaxDelay: time.Hour})
		assert.Equal(t, ReasonCanceled, res.Reason)
		assert.Zero(t, res.Failures)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestRandomDelayBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := randomDelay(2*time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 3*time.Second)
	}
	assert.Equal(t, time.Second, randomDelay(time.Second, time.Second))
	assert.Zero(t, randomDelay(0, 0))
}
