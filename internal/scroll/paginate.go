package scroll

import (
	"context"
	"log/slog"
)

// Pager moves a paginated source between pages.
type Pager interface {
	HasNextPage(ctx context.Context) (bool, error)
	// GoToNextPage reports false when navigation did not happen.
	GoToNextPage(ctx context.Context) (bool, error)
}

// PageLoader is a Loader that is also paginated.
type PageLoader interface {
	Loader
	Pager
}

// PageCollector collects the identifiers of the current page. page starts at 1.
type PageCollector func(ctx context.Context, page int) Result

// PageReason records why pagination stopped.
type PageReason string

const (
	PageReasonMaxPages      PageReason = "max_pages"
	PageReasonLastPage      PageReason = "last_page"
	PageReasonNavigation    PageReason = "navigation_failed"
	PageReasonExpectedTotal PageReason = "expected_total"
	PageReasonCanceled      PageReason = "canceled"
)

// PagedResult is the union of identifiers over all visited pages, in first-seen order.
type PagedResult struct {
	IDs    []string
	Pages  []Result
	Reason PageReason
}

// Paginate runs collect once per page and accumulates the union of identifiers. It stops
// after maxPages pages (minimum 1), when the pager reports no next page, when navigation
// fails (never retried) or once the union reaches a positive expectedTotal.
func Paginate(ctx context.Context, expectedTotal int, collect PageCollector, pager Pager, maxPages int, logger *slog.Logger) PagedResult {
	if maxPages <= 0 {
		maxPages = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	seen := newOrderedSet()
	out := PagedResult{Reason: PageReasonMaxPages}

	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			out.Reason = PageReasonCanceled
			break
		}
		res := collect(ctx, page)
		out.Pages = append(out.Pages, res)
		added := seen.Add(res.IDs...)
		logger.Info("page collected",
			slog.Int("page", page),
			slog.Int("new_ids", added),
			slog.Int("total_ids", seen.Len()),
			slog.String("reason", string(res.Reason)),
		)

		if res.Reason == ReasonCanceled {
			out.Reason = PageReasonCanceled
			break
		}
		if expectedTotal > 0 && seen.Len() >= expectedTotal {
			out.Reason = PageReasonExpectedTotal
			break
		}
		if page == maxPages {
			break
		}

		more, err := pager.HasNextPage(ctx)
		if err != nil {
			logger.Warn("next page check failed", slog.Int("page", page), slog.Any("error", err))
			out.Reason = PageReasonNavigation
			break
		}
		if !more {
			out.Reason = PageReasonLastPage
			break
		}
		moved, err := pager.GoToNextPage(ctx)
		if err != nil || !moved {
			logger.Warn("navigation to next page failed", slog.Int("page", page), slog.Any("error", err))
			out.Reason = PageReasonNavigation
			break
		}
	}

	out.IDs = seen.Items()
	return out
}

// CollectPaginated runs Collect on every page of loader with the same options.
func CollectPaginated(ctx context.Context, loader PageLoader, opts Options, maxPages int) PagedResult {
	collect := func(ctx context.Context, _ int) Result {
		return Collect(ctx, loader, opts)
	}
	return Paginate(ctx, opts.ExpectedTotal, collect, loader, maxPages, opts.Logger)
}
