package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/golang-migrate/migrate/v4/database"
)

// migrationDriver implements migrate's database.Driver on top of an already
// open database/sql connection. The stock sqlite drivers that ship with
// golang-migrate pull in cgo-backed connectors; driving migrations through
// the shared connection keeps the build on the wasm-based sqlite driver.
type migrationDriver struct {
	db *sql.DB
	mu sync.Mutex
}

var _ database.Driver = (*migrationDriver)(nil)

// newMigrationDriver prepares the schema_migrations bookkeeping table.
func newMigrationDriver(db *sql.DB) (*migrationDriver, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER NOT NULL,
		dirty INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}
	return &migrationDriver{db: db}, nil
}

// Open is unused; the driver is always constructed around an existing
// connection via migrate.NewWithInstance.
func (d *migrationDriver) Open(string) (database.Driver, error) {
	return nil, fmt.Errorf("migration driver must be constructed with an open connection")
}

func (d *migrationDriver) Close() error {
	// The connection is owned by the DB struct.
	return nil
}

// Lock serializes migration runs within this process. Cross-process mutual
// exclusion comes from sqlite's own file locking during the DDL transaction.
func (d *migrationDriver) Lock() error {
	d.mu.Lock()
	return nil
}

func (d *migrationDriver) Unlock() error {
	d.mu.Unlock()
	return nil
}

// Run applies one migration file.
func (d *migrationDriver) Run(migration io.Reader) error {
	stmts, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := d.db.Exec(string(stmts)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (d *migrationDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin version update: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM schema_migrations`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear schema_migrations: %w", err)
	}
	if version >= 0 {
		dirtyInt := 0
		if dirty {
			dirtyInt = 1
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirtyInt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return tx.Commit()
}

func (d *migrationDriver) Version() (int, bool, error) {
	var version int
	var dirty int
	err := d.db.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return database.NilVersion, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty == 1, nil
}

// Drop removes every table except the migration bookkeeping.
func (d *migrationDriver) Drop() error {
	rows, err := d.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'schema_migrations'`)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, table := range tables {
		if _, err := d.db.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}
