package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	apperrors "go-jobsearch-automation/internal/errors"
	"go-jobsearch-automation/internal/models"
)

const defaultImportConcurrency = 4

// FileResult reports the import of one JSON file. Err is set when the file could not be
// read or parsed, or when a record hit a storage error.
type FileResult struct {
	Path       string
	Records    int
	Added      int
	Duplicates int
	Rejected   int
	Err        error
}

// ExpandPaths turns directories into the *.json files they contain. Plain file paths are
// kept as given.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

// ImportFiles loads each JSON file (one record or an array of records) and feeds the
// records to store.AddJob, at most concurrency files at a time. Results follow the order
// of paths. The returned error is only set when ctx ends the import.
func ImportFiles(ctx context.Context, store JobStore, paths []string, concurrency int, logger *slog.Logger) ([]FileResult, error) {
	if concurrency <= 0 {
		concurrency = defaultImportConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = importFile(gctx, store, path, logger)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func importFile(ctx context.Context, store JobStore, path string, logger *slog.Logger) FileResult {
	res := FileResult{Path: path}
	records, err := readRecords(path)
	if err != nil {
		res.Err = err
		logger.Warn("import file skipped", slog.String("path", path), slog.Any("error", err))
		return res
	}
	res.Records = len(records)

	for i, raw := range records {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		out, err := store.AddJob(ctx, raw)
		switch {
		case err == nil && out.Status == models.StatusAdded:
			res.Added++
		case err == nil:
			res.Duplicates++
		case apperrors.IsValidation(err):
			res.Rejected++
			logger.Info("import record rejected", slog.String("path", path), slog.Int("index", i), slog.String("field", apperrors.GetField(err)))
		default:
			res.Err = fmt.Errorf("record %d: %w", i, err)
			logger.Error("import record failed", slog.String("path", path), slog.Int("index", i), slog.Any("error", err))
			return res
		}
	}
	logger.Info("file imported",
		slog.String("path", path),
		slog.Int("records", res.Records),
		slog.Int("added", res.Added),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("rejected", res.Rejected),
	)
	return res
}

func readRecords(path string) ([]models.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var records []models.RawRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return records, nil
	}
	var rec models.RawRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []models.RawRecord{rec}, nil
}
