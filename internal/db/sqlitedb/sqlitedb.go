// Package sqlitedb is the SQLite storage of the letter archive, used when no
// PostgreSQL DSN is configured and by the tests. It runs the pure-Go modernc
// driver over a single connection, so a caller holding a transaction must
// route every query of that unit of work through it.
package sqlitedb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// foldCaseFunction lower-cases text by Unicode rules. SQLite's own lower()
// and LIKE fold ASCII only.
const foldCaseFunction = "fold_case"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(
		foldCaseFunction,
		1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch value := args[0].(type) {
			case string:
				return foldCase(value), nil
			case []byte:
				return foldCase(string(value)), nil
			default:
				return value, nil
			}
		},
	)
}

func foldCase(value string) string {
	return strings.ToLower(value)
}

// SQLiteDB is the SQLite-backed archive storage.
type SQLiteDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New opens (creating if needed) the database file at path and applies the
// migrations.
func New(ctx context.Context, path string, connectionTimeout time.Duration) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `os.MkdirAll()` calling: %w", err)
		}
	}

	database, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	database.SetMaxOpenConns(1)

	result := &SQLiteDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `result.Ping()` calling: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `goose.UpContext()` calling: %w", err)
	}

	return result, nil
}

func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + params.Encode()
}

// BeginTransaction starts a transaction. The caller commits or rolls it back.
func (db *SQLiteDB) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	return db.database.BeginTx(ctx, nil)
}

// CommitTransaction commits the given transaction.
func (db *SQLiteDB) CommitTransaction(transaction *sql.Tx) error {
	return transaction.Commit()
}

// RollbackTransaction rolls back the given transaction.
func (db *SQLiteDB) RollbackTransaction(transaction *sql.Tx) error {
	return transaction.Rollback()
}

// Ping verifies the database is reachable within the configured timeout.
func (db *SQLiteDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database.
func (db *SQLiteDB) Close() error {
	return db.database.Close()
}

func (db *SQLiteDB) queryer(transaction *sql.Tx) queryer {
	if transaction == nil {
		return db.database
	}
	return transaction
}

func (db *SQLiteDB) executor(transaction *sql.Tx) executor {
	if transaction == nil {
		return db.database
	}
	return transaction
}

// constraintCode returns the extended result code of a constraint
// violation, or 0 when err is something else.
func constraintCode(err error) int {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0
	}
	switch code := sqliteErr.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return code
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := constraintCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// timestamp scans the TEXT timestamps the schema defaults created_at to.
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	var value string
	switch typed := src.(type) {
	case time.Time:
		t.Time = typed
		return nil
	case string:
		value = typed
	case []byte:
		value = string(typed)
	default:
		return fmt.Errorf("sqlitedb: unsupported timestamp source %T", src)
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("sqlitedb: unparsable timestamp %q", value)
}
