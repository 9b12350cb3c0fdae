// Package db holds the SQL adapters for inspections, failures and analytics
// on MySQL, PostgreSQL or SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Backend names a supported database.
type Backend string

const (
	MySQL    Backend = "mysql"
	Postgres Backend = "postgres"
	SQLite   Backend = "sqlite"
	None     Backend = "none"
)

// ParseBackend validates a configured backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case MySQL, Postgres, SQLite, None:
		return b, nil
	case "":
		return None, nil
	}
	return "", fmt.Errorf("unsupported database backend %q (allowed: mysql, postgres, sqlite, none)", s)
}

func (b Backend) driverName() string {
	if b == SQLite {
		return "sqlite"
	}
	return string(b)
}

// Connect opens a pool and pings it.
func Connect(ctx context.Context, backend Backend, dsn string) (*sql.DB, error) {
	if backend == None {
		return nil, fmt.Errorf("database backend is none")
	}
	db, err := sql.Open(backend.driverName(), dsn)
	if err != nil {
		return nil, err
	}
	if backend == SQLite {
		// single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN for a database file.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
}
