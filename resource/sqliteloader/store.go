// Package sqliteloader is a concrete resource.Resource backing store
// over SQLite, demonstrating the Resource Loader contract (spec.md
// §4.H) against a real datastore. It lives outside the core on purpose:
// spec.md §6 says the core owns no on-disk format, so this package, not
// the resource package itself, depends on github.com/mattn/go-sqlite3.
// Grounded on the Open/pragma/schema pattern in
// roach88-nysm/brutalist/internal/store/store.go.
package sqliteloader

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS resources (
	id         TEXT PRIMARY KEY,
	key        TEXT NOT NULL UNIQUE,
	payload    BLOB,
	loaded_at  INTEGER
);
`

// Store wraps a SQLite connection configured for a single-writer
// resource-loading workload: WAL mode for concurrent reads, a busy
// timeout instead of an immediate SQLITE_BUSY, and exactly one open
// connection (SQLite supports only one writer at a time).
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path, applying pragmas and
// the schema. Idempotent: safe to call against an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqliteloader: open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqliteloader: connect to database")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqliteloader: apply schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return errors.Wrapf(err, "sqliteloader: apply pragma %q", p)
		}
	}
	return nil
}
