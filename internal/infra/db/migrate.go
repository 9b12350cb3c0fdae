package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate brings the schema of backend to targetVersion.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
// It opens its own connection, which is closed on return.
func Migrate(backend Backend, dsn string, targetVersion int, log *zap.Logger) error {
	if backend == None {
		return fmt.Errorf("migrations are not supported for backend none")
	}
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := sql.Open(backend.driverName(), dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var driver database.Driver
	switch backend {
	case MySQL:
		driver, err = migratemysql.WithInstance(conn, &migratemysql.Config{})
	case Postgres:
		driver, err = migratepostgres.WithInstance(conn, &migratepostgres.Config{})
	case SQLite:
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(backend), driver)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// closes the driver and with it conn
	defer func() { _, _ = m.Close() }()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d, fix manually or force version", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date", zap.String("backend", string(backend)), zap.Uint("version", current))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	now, _, _ := m.Version()
	log.Info("schema migrated",
		zap.String("backend", string(backend)),
		zap.Uint("from", current),
		zap.Uint("to", now))
	return nil
}
