package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// InitDB opens the database for the given driver and ensures tables exist.
func InitDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		return initSQLite(dsn)
	case DriverPostgres:
		return initPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func initSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func initPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureSchema(db, postgresSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS logs (
    id TEXT PRIMARY KEY,
    ts TIMESTAMP NOT NULL,
    level TEXT NOT NULL,
    message TEXT NOT NULL,
    service TEXT NOT NULL,
    tag TEXT NOT NULL,
    metadata TEXT,
    source_metadata TEXT,
    raw TEXT,
    received_at TIMESTAMP NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_logs_ts ON logs (ts);`,
	`CREATE INDEX IF NOT EXISTS idx_logs_level ON logs (level);`,
	`CREATE INDEX IF NOT EXISTS idx_logs_service ON logs (service);`,
	`CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS logs (
    id TEXT PRIMARY KEY,
    ts TIMESTAMPTZ NOT NULL,
    level TEXT NOT NULL,
    message TEXT NOT NULL,
    service TEXT NOT NULL,
    tag TEXT NOT NULL,
    metadata JSONB,
    source_metadata JSONB,
    raw JSONB,
    received_at TIMESTAMPTZ NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_logs_ts ON logs (ts DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_logs_level ON logs (level);`,
	`CREATE INDEX IF NOT EXISTS idx_logs_service ON logs (service);`,
	`CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    data JSONB NOT NULL,
    version INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);`,
}

func ensureSchema(db *sql.DB, stmts []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// Rebind rewrites '?' placeholders to $1..$n for postgres.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
