// Package sqlite implements the catalog repositories on SQLite.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB owns the SQLite connection and hands out repositories bound to it.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the catalog database at path and brings
// the schema up to date. An existing database file is backed up to path.bak
// before migrations run. The path ":memory:" opens an in-memory database.
func NewDB(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		if _, err := os.Stat(path); err == nil {
			if err := backupFile(path, path+".bak"); err != nil {
				return nil, fmt.Errorf("pre-migration backup: %w", err)
			}
		}
	}

	log.Debug(log.CatDB, "Opening catalog database", "path", path)
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty
		// in-memory database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info(log.CatDB, "Catalog database ready", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// runMigrations applies all embedded migrations that are not yet applied.
func runMigrations(conn *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := newMigrationDriver(conn)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func backupFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // G304: path is the user-selected database path
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Connection returns the underlying *sql.DB for callers that need raw access,
// such as test fixtures.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// RegistryRepository returns the dimension/domain/reference-system store.
func (db *DB) RegistryRepository() domain.RegistryRepository {
	return newRegistryRepository(db.conn)
}

// TypeRepository returns the dataset/storage type store.
func (db *DB) TypeRepository() domain.TypeRepository {
	return newTypeRepository(db.conn)
}

// DatasetRepository returns the dataset store.
func (db *DB) DatasetRepository() domain.DatasetRepository {
	return newDatasetRepository(db.conn)
}

// StorageUnitRepository returns the storage unit store.
func (db *DB) StorageUnitRepository() domain.StorageUnitRepository {
	return newStorageUnitRepository(db.conn)
}
