package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/AlexTLDR/guestlist/internal/database/migrations"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB is the SQL-backed invitation source and response table.
type DB struct {
	*sql.DB
	driver string
}

// New opens and pings a database. driver is DriverPostgres or DriverSQLite.
func New(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection keeps :memory: databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() // Ignore close error, we're already returning ping error
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// Connect opens a database like New, retrying with exponential backoff while
// the server is still coming up.
func Connect(ctx context.Context, driver, dsn string, attempts uint64, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(500*time.Millisecond))

	var db *DB
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		db, err = New(ctx, driver, dsn)
		if err != nil {
			logger.WarnContext(ctx, "database not ready", "driver", driver, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteDSN builds a DSN for a SQLite database file.
func SQLiteDSN(path string) string {
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

// Migrate applies the embedded migrations.
func (db *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	dialect, fsys := goose.DialectPostgres, migrations.Postgres()
	if db.driver == DriverSQLite {
		dialect, fsys = goose.DialectSQLite3, migrations.SQLite()
	}

	opts := []goose.ProviderOption{}
	if logger != nil {
		opts = append(opts, goose.WithSlog(logger))
	}
	provider, err := goose.NewProvider(dialect, db.DB, fsys, opts...)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders into the driver's bind syntax.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
