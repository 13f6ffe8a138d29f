package sqlstore

import (
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect captures what differs between the sqlite and postgres backends.
// Queries are written once with ? placeholders and rewritten per dialect.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(target string) string
	RewriteQuery(query string) string
	ConfigureConnection(db *sql.DB)
	MigrationsSubdir() string
}

func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3", "":
		return SQLiteDialect{}, nil
	case "postgres", "postgresql", "pgx":
		return PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", name)
	}
}

type SQLiteDialect struct{}

func (SQLiteDialect) Name() string       { return "sqlite" }
func (SQLiteDialect) DriverName() string { return "sqlite" }

// DSN turns a file path into a modernc DSN with foreign keys and WAL enabled.
func (SQLiteDialect) DSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

func (SQLiteDialect) RewriteQuery(query string) string { return query }

func (SQLiteDialect) ConfigureConnection(db *sql.DB) {
	// A single writer avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
}

func (SQLiteDialect) MigrationsSubdir() string { return "sqlite" }

type PostgresDialect struct{}

func (PostgresDialect) Name() string       { return "postgres" }
func (PostgresDialect) DriverName() string { return "pgx" }

func (PostgresDialect) DSN(target string) string { return target }

func (PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholders(query)
}

func (PostgresDialect) ConfigureConnection(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

func (PostgresDialect) MigrationsSubdir() string { return "postgres" }

var placeholderRe = regexp.MustCompile(`\?`)

// rewritePlaceholders converts ? placeholders to $1, $2, ...
func rewritePlaceholders(query string) string {
	n := 0
	return placeholderRe.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}
