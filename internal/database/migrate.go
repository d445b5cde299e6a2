package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	apperrors "go-jobsearch-automation/internal/errors"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrate applies the embedded migrations for the store's dialect. It is safe to call
// multiple times and against databases created by older tooling, since every statement
// is CREATE ... IF NOT EXISTS.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	dir := path.Join("migrations", s.dialect.name)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		if err := s.applyMigration(ctx, dir, f); err != nil {
			return err
		}
	}
	return nil
}

// applyMigration runs one migration file and records it. The applied check runs inside
// the write transaction so concurrent openers of a fresh database serialize on it; a
// recording conflict means another opener won and is treated as applied.
func (s *Store) applyMigration(ctx context.Context, dir, file string) error {
	version := strings.TrimSuffix(file, ".sql")
	body, err := migrationsFS.ReadFile(path.Join(dir, file))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	applied := false
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if exists > 0 {
			return nil
		}
		for _, stmt := range splitStatements(string(body)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
		res, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)
			ON CONFLICT (version) DO NOTHING`), version, s.now())
		if err != nil {
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			applied = true
		}
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(apperrors.MapDBError(err)) {
			s.logger.Debug("migration applied concurrently", slog.String("version", version))
			return nil
		}
		return err
	}
	if applied {
		s.logger.Info("applied migration", slog.String("version", version), slog.String("driver", s.dialect.name))
	}
	return nil
}

// splitStatements splits a migration file on ';'. Migration files must not contain
// semicolons inside literals or comments.
func splitStatements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";") {
		stmt := strings.TrimSpace(part)
		if stmt == "" || isCommentOnly(stmt) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
