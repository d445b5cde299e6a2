// Package ingest moves postings from a job board into the record store: collect links,
// skip what was already seen, extract details, score, store and notify.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-jobsearch-automation/internal/browser"
	"go-jobsearch-automation/internal/database"
	"go-jobsearch-automation/internal/dedup"
	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
	"go-jobsearch-automation/internal/scraper"
	"go-jobsearch-automation/internal/scroll"
)

// JobStore is the part of the record store the pipeline writes to.
type JobStore interface {
	AddJob(ctx context.Context, raw models.RawRecord) (models.AddOutcome, error)
	JobExists(ctx context.Context, sourceURL, title, company string) (bool, error)
}

type Notifier interface {
	NotifyJob(ctx context.Context, job models.JobPosting, score int) error
	NotifyStatus(ctx context.Context, message string) error
}

// Matcher scores a normalized posting and decides whether it is kept.
type Matcher interface {
	Match(job models.JobPosting) (int, bool)
}

type Options struct {
	// Seen, Notifier and Matcher are optional.
	Seen     dedup.Cache
	Notifier Notifier
	Matcher  Matcher
	// DetailMinDelay and DetailMaxDelay pace detail page visits; zero disables pacing.
	DetailMinDelay time.Duration
	DetailMaxDelay time.Duration
	Now            func() time.Time
	Logger         *slog.Logger
}

type Pipeline struct {
	source scraper.Source
	store  JobStore
	opts   Options
	logger *slog.Logger
}

func New(source scraper.Source, store JobStore, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{source: source, store: store, opts: opts, logger: opts.Logger}
}

// Summary counts what happened to every collected link of a run.
type Summary struct {
	RunID     string
	Searches  int
	Collected int
	// Skipped links were in the seen cache or already stored.
	Skipped    int
	Extracted  int
	Failed     int
	Rejected   int
	Added      int
	Duplicates int
	Notified   int
	Reasons    []scroll.PageReason
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d searches, %d links, %d skipped, %d extracted, %d added, %d duplicates, %d rejected, %d failed",
		s.RunID, s.Searches, s.Collected, s.Skipped, s.Extracted, s.Added, s.Duplicates, s.Rejected, s.Failed)
}

// Run executes searches in order. A search whose link collection fails is logged and
// skipped; only cancellation ends the run early.
func (p *Pipeline) Run(ctx context.Context, searches []scraper.Search) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := p.logger.With(slog.String("run_id", sum.RunID), slog.String("source", p.source.Name()))
	logger.Info("run started", slog.Int("searches", len(searches)))

	for _, search := range searches {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Searches++
		if err := p.runSearch(ctx, logger, search, &sum); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			logger.Warn("search failed", slog.String("keywords", search.Keywords), slog.Any("error", err))
		}
	}

	logger.Info("run finished",
		slog.Int("collected", sum.Collected),
		slog.Int("added", sum.Added),
		slog.Int("duplicates", sum.Duplicates),
		slog.Int("skipped", sum.Skipped),
		slog.Int("rejected", sum.Rejected),
		slog.Int("failed", sum.Failed),
	)
	if p.opts.Notifier != nil {
		if err := p.opts.Notifier.NotifyStatus(ctx, sum.String()); err != nil {
			logger.Warn("status notification failed", slog.Any("error", err))
		}
	}
	return sum, nil
}

func (p *Pipeline) runSearch(ctx context.Context, logger *slog.Logger, search scraper.Search, sum *Summary) error {
	logger = logger.With(slog.String("keywords", search.Keywords))
	links, err := p.source.CollectLinks(ctx, search)
	if err != nil {
		return fmt.Errorf("collect links: %w", err)
	}
	sum.Collected += len(links.IDs)
	sum.Reasons = append(sum.Reasons, links.Reason)
	logger.Info("links collected", slog.Int("links", len(links.IDs)), slog.String("reason", string(links.Reason)))

	for i, url := range links.IDs {
		if i > 0 && p.opts.DetailMaxDelay > 0 {
			if err := browser.RandomDelay(ctx, p.opts.DetailMinDelay, p.opts.DetailMaxDelay); err != nil {
				return err
			}
		}
		if err := p.process(ctx, logger.With(slog.String("url", url)), url, sum); err != nil {
			return err
		}
	}
	return nil
}

// process handles one link. It only returns an error when the run must stop.
func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, url string, sum *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.isSeen(ctx, logger, url) {
		sum.Skipped++
		return nil
	}
	exists, err := p.store.JobExists(ctx, url, "", "")
	if err != nil {
		logger.Warn("job lookup failed", slog.Any("error", err))
	} else if exists {
		sum.Skipped++
		p.markSeen(ctx, logger, url)
		return nil
	}

	raw, err := p.source.Extract(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Not marked seen, so the next run retries it.
		logger.Warn("extract failed", slog.Any("error", err))
		sum.Failed++
		return nil
	}
	sum.Extracted++

	job, err := database.NormalizeJob(raw, p.opts.Now())
	if err != nil {
		logger.Info("posting rejected", slog.String("field", apperrors.GetField(err)), slog.Any("error", err))
		sum.Rejected++
		p.markSeen(ctx, logger, url)
		return nil
	}
	score := 0
	if p.opts.Matcher != nil {
		var ok bool
		score, ok = p.opts.Matcher.Match(job)
		if !ok {
			logger.Debug("posting filtered out", slog.Int("score", score))
			sum.Rejected++
			p.markSeen(ctx, logger, url)
			return nil
		}
	}

	outcome, err := p.store.AddJob(ctx, raw)
	switch {
	case err == nil:
	case apperrors.IsValidation(err):
		sum.Rejected++
		p.markSeen(ctx, logger, url)
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), apperrors.IsCanceled(err):
		return err
	default:
		logger.Error("store job failed", slog.Any("error", err))
		sum.Failed++
		return nil
	}

	switch outcome.Status {
	case models.StatusAdded:
		sum.Added++
		logger.Info("job added", slog.Int64("id", outcome.ID), slog.Int("score", score))
		if p.opts.Notifier != nil {
			if err := p.opts.Notifier.NotifyJob(ctx, outcome.Job, score); err != nil {
				logger.Warn("job notification failed", slog.Any("error", err))
			} else {
				sum.Notified++
			}
		}
	case models.StatusAlreadyExists:
		sum.Duplicates++
	}
	p.markSeen(ctx, logger, url)
	return nil
}

func (p *Pipeline) isSeen(ctx context.Context, logger *slog.Logger, url string) bool {
	if p.opts.Seen == nil {
		return false
	}
	seen, err := p.opts.Seen.IsSeen(ctx, url)
	if err != nil {
		logger.Warn("seen cache lookup failed", slog.Any("error", err))
		return false
	}
	return seen
}

func (p *Pipeline) markSeen(ctx context.Context, logger *slog.Logger, url string) {
	if p.opts.Seen == nil {
		return
	}
	if err := p.opts.Seen.MarkSeen(ctx, url); err != nil {
		logger.Warn("seen cache update failed", slog.Any("error", err))
	}
}
