package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/assay/internal/errs"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added (p, o) index on quads for type lookups
const currentSchemaVersion = 1

// Handle is the live storage for one Location: a SQLite quad table.
//
// A Handle is created by a Manager and stays valid until the Manager
// releases its location. Operations on a released handle fail with a
// StorageError of code RELEASED.
type Handle struct {
	loc      Location
	db       *sql.DB
	released atomic.Bool
}

// Opener creates the handle for a location. Manager uses OpenHandle unless
// another opener is injected.
type Opener func(loc Location, params Params) (*Handle, error)

// OpenHandle creates or opens the database backing loc and applies params,
// schema and migrations.
//
// The database is configured with:
//   - the requested journal mode (WAL by default on disk)
//   - the requested synchronous mode (NORMAL by default)
//   - a busy timeout for lock contention
//   - foreign key enforcement
//
// Directory locations are created if missing.
func OpenHandle(loc Location, params Params) (*Handle, error) {
	if loc.IsZero() {
		return nil, errs.Storage(errs.CodeLocationUnavailable, "", fmt.Errorf("zero location"))
	}
	if err := params.Validate(); err != nil {
		return nil, errs.Storage(errs.CodeLocationUnavailable, loc.String(), err)
	}
	params = params.withDefaults(loc)

	if loc.IsDirectory() {
		if err := os.MkdirAll(loc.Path(), 0o755); err != nil {
			return nil, errs.Storage(errs.CodeLocationUnavailable, loc.String(), err)
		}
	}

	db, err := sql.Open("sqlite3", loc.dsn())
	if err != nil {
		return nil, errs.Storage(errs.CodeLocationUnavailable, loc.String(), fmt.Errorf("open database: %w", err))
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Storage(errs.CodeLocationUnavailable, loc.String(), fmt.Errorf("connect to database: %w", err))
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps in-memory databases alive until the handle is closed.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db, params); err != nil {
		db.Close()
		return nil, errs.Storage(errs.CodeLocationUnavailable, loc.String(), fmt.Errorf("apply pragmas: %w", err))
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, errs.Storage(errs.CodeLocationUnavailable, loc.String(), fmt.Errorf("apply schema: %w", err))
	}

	return &Handle{loc: loc, db: db}, nil
}

// Location returns the location the handle serves.
func (h *Handle) Location() Location {
	return h.loc.unscoped()
}

// Released reports whether the handle's location has been released.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// close releases the database. Only the Manager calls it.
func (h *Handle) close() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// live returns an error when the handle can no longer be used.
func (h *Handle) live() error {
	if h.released.Load() {
		return errs.Storage(errs.CodeReleased, h.loc.String(), nil)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, params Params) error {
	for _, pragma := range params.pragmas() {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the (p, o) index used by rdf:type lookups.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_quads_po ON quads(p, o)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// pragma returns the current value of a pragma. Used by tests.
func (h *Handle) pragma(ctx context.Context, name string) (string, error) {
	var value string
	if err := h.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
