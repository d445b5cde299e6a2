// Package database implements the record store for job postings and generated documents
// on top of database/sql, backed by SQLite (default) or Postgres.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	apperrors "go-jobsearch-automation/internal/errors"
)

const (
	defaultMaxAttempts   = 3
	defaultRetryBackoff  = 500 * time.Millisecond
	defaultBusyTimeoutMs = 5000
	defaultPageSize      = 100
	timeLayout           = "2006-01-02 15:04:05.000000"
)

// Options configures Open.
type Options struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is a file path for SQLite or a connection URL for Postgres.
	DSN string
	// MaxAttempts bounds retries of a write under lock contention.
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
	// BusyTimeout is how long SQLite waits on a lock before reporting SQLITE_BUSY.
	BusyTimeout time.Duration
	Clock       Clock
	Logger      *slog.Logger
}

// Store is the deduplicating record store. It is safe for concurrent use; each
// operation runs on its own pooled connection and completes before returning.
type Store struct {
	db          *sql.DB
	dialect     dialect
	clock       Clock
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

// Open connects to the configured database and applies the embedded migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	busy := defaultBusyTimeoutMs
	if opts.BusyTimeout > 0 {
		busy = int(opts.BusyTimeout.Milliseconds())
	}
	dsn, err := d.dataSource(opts.DSN, busy)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := newStore(db, d, opts)
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB, d dialect, opts Options) *Store {
	s := &Store{
		db:          db,
		dialect:     d,
		clock:       opts.Clock,
		logger:      opts.Logger,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.RetryBackoff,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	// Negative disables the wait between retries.
	switch {
	case s.backoff < 0:
		s.backoff = 0
	case s.backoff == 0:
		s.backoff = defaultRetryBackoff
	}
	return s
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the backend name ("sqlite" or "postgres").
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *Store) now() string {
	return formatTime(s.clock.Now())
}

// withTx runs fn inside a single transaction, rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// withRetry runs fn in a transaction, retrying on lock contention with a linear
// backoff of backoff*attempt. Other failures are returned immediately, mapped to AppError.
func (s *Store) withRetry(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	attempt := 0
	err := retry.Do(ctx, s.retryBackoff(op), func(ctx context.Context) error {
		attempt++
		err := apperrors.MapDBError(s.withTx(ctx, fn))
		if apperrors.IsContention(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	switch {
	case err == nil:
		return nil
	case apperrors.IsContention(err):
		return apperrors.Wrapf(err, apperrors.ErrCodeStorage, "%s: gave up after %d attempts", op, attempt)
	default:
		return apperrors.MapDBError(err)
	}
}

// retryBackoff waits backoff*n before the n-th retry and stops after maxAttempts tries.
func (s *Store) retryBackoff(op string) retry.Backoff {
	n := 0
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		wait := s.backoff * time.Duration(n)
		s.logger.Warn("database busy, retrying",
			slog.String("op", op),
			slog.Int("attempt", n),
			slog.Int("max_attempts", s.maxAttempts),
			slog.Duration("backoff", wait),
		)
		return wait, false
	})
	return retry.WithMaxRetries(uint64(s.maxAttempts-1), linear)
}

// readErr maps a failed read to an AppError with context.
func readErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, apperrors.MapDBError(err))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

var parseLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02",
}

// parseTime accepts the store's own layout plus the formats written by older tooling
// (SQLite CURRENT_TIMESTAMP and ISO 8601). Unparseable values yield the zero time.
func parseTime(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
