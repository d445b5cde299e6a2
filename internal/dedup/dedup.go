// Package dedup remembers which posting URLs were already processed so a run can skip
// them before opening a detail page.
package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// DefaultTTL is how long a URL stays seen.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a set of seen URLs with expiry.
type Cache interface {
	IsSeen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, urls ...string) error
}

type seenEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// FileCache keeps seen URLs in memory and persists them to <dir>/seen_jobs.json.
type FileCache struct {
	mu       sync.Mutex
	filePath string
	ttl      time.Duration
	seen     map[string]int64
	now      func() time.Time
	logger   *slog.Logger
}

var _ Cache = (*FileCache)(nil)

// NewFileCache creates or loads a file cache. Entries older than ttl are dropped on load.
func NewFileCache(dir string, ttl time.Duration, logger *slog.Logger) (*FileCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	c := &FileCache{
		filePath: filepath.Join(dir, "seen_jobs.json"),
		ttl:      ttl,
		seen:     make(map[string]int64),
		now:      time.Now,
		logger:   logger,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// IsSeen checks if a URL has already been processed and has not expired.
func (c *FileCache) IsSeen(_ context.Context, url string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.seen[url]
	if !ok {
		return false, nil
	}
	return ts > c.cutoff(), nil
}

// MarkSeen records urls and saves the file when anything changed.
func (c *FileCache) MarkSeen(_ context.Context, urls ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixMilli()
	changed := false
	for _, url := range urls {
		if url == "" {
			continue
		}
		if ts, ok := c.seen[url]; !ok || ts <= c.cutoff() {
			c.seen[url] = now
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.save()
}

// Len returns the number of entries held, expired or not.
func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *FileCache) cutoff() int64 {
	return c.now().Add(-c.ttl).UnixMilli()
}

func (c *FileCache) load() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", c.filePath, err)
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache only costs a few extra detail page visits.
		c.logger.Warn("failed to parse seen cache, starting empty", slog.String("path", c.filePath), slog.Any("error", err))
		return nil
	}

	cutoff := c.cutoff()
	for _, e := range entries {
		if e.Timestamp > cutoff {
			c.seen[e.URL] = e.Timestamp
		}
	}
	c.logger.Info("loaded seen jobs",
		slog.Int("loaded", len(c.seen)),
		slog.Int("expired", len(entries)-len(c.seen)),
	)
	return nil
}

func (c *FileCache) save() error {
	entries := make([]seenEntry, 0, len(c.seen))
	for url, ts := range c.seen {
		entries = append(entries, seenEntry{URL: url, Timestamp: ts})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen jobs: %w", err)
	}
	tmp := c.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write seen jobs: %w", err)
	}
	if err := os.Rename(tmp, c.filePath); err != nil {
		return fmt.Errorf("replace seen jobs: %w", err)
	}
	c.logger.Debug("saved seen jobs", slog.Int("count", len(entries)))
	return nil
}
