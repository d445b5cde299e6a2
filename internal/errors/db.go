package errors

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MapDBError maps database driver errors to AppError instances:
//   - sql.ErrNoRows → NotFound
//   - unique / primary key violations → Conflict
//   - foreign key violations → Validation on job_id
//   - SQLITE_BUSY, SQLITE_LOCKED, Postgres serialization/deadlock/lock errors → Contention
//   - context timeouts/cancellations → Timeout/Canceled
//   - everything else → Storage
//
// Errors that are already an AppError are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "database operation timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "database operation was canceled")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(err, ErrCodeNotFound, "record not found")
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return mapSQLiteError(liteErr)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return Storage(err, "database error")
}

func mapSQLiteError(e *sqlite.Error) error {
	code := e.Code()
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return Wrap(e, ErrCodeConflict, "record already exists")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return &AppError{Code: ErrCodeValidation, Message: "referenced job does not exist", Field: "job_id", Cause: e}
	}
	// Extended result codes carry the primary code in the low byte.
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return Wrap(e, ErrCodeContention, "database is locked")
	}
	return Storage(e, "sqlite error")
}

func mapPgError(e *pgconn.PgError) error {
	switch e.Code {
	case pgerrcode.UniqueViolation:
		return Wrap(e, ErrCodeConflict, "record already exists")
	case pgerrcode.ForeignKeyViolation:
		return &AppError{Code: ErrCodeValidation, Message: "referenced job does not exist", Field: "job_id", Cause: e}
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return Wrap(e, ErrCodeContention, "database is busy")
	default:
		return Storage(e, "postgres error")
	}
}
