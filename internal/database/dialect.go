package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	// database/sql drivers for both supported backends.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect captures the small differences between the SQLite and Postgres backends.
// Queries are written with '?' placeholders and rebound per dialect.
type dialect struct {
	name       string
	driverName string
	bindType   int
}

var (
	sqliteDialect   = dialect{name: DriverSQLite, driverName: "sqlite", bindType: sqlx.QUESTION}
	postgresDialect = dialect{name: DriverPostgres, driverName: "pgx", bindType: sqlx.DOLLAR}
)

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite, "sqlite3":
		return sqliteDialect, nil
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind converts '?' placeholders to the dialect's bind style. Queries must not carry
// a literal '?' inside quoted strings.
func (d dialect) rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// dataSource builds the driver DSN. For SQLite the target is a file path: the parent
// directory is created and the connection runs in WAL mode with a busy timeout, foreign
// keys on and IMMEDIATE write transactions so concurrent writers serialize in the engine.
func (d dialect) dataSource(target string, busyTimeoutMs int) (string, error) {
	if d.name != DriverSQLite {
		if target == "" {
			return "", fmt.Errorf("postgres connection url is required")
		}
		return postgresDataSource(target), nil
	}
	if target == "" {
		return "", fmt.Errorf("sqlite database path is required")
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create database directory: %w", err)
		}
	}
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMs))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_txlock", "immediate")
	return "file:" + target + "?" + params.Encode(), nil
}

// postgresDataSource disables the pgx statement cache unless the URL picks a mode itself.
// Transaction-mode poolers (PgBouncer, Supabase) reject prepared statements.
func postgresDataSource(target string) string {
	if strings.Contains(target, "default_query_exec_mode=") {
		return target
	}
	if strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://") {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		return target + sep + "default_query_exec_mode=exec"
	}
	return target + " default_query_exec_mode=exec"
}
