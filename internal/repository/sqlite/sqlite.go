// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — no C toolchain, works everywhere Go works.
//
// SCHEMA NOTES:
//   - All ids are INTEGER PRIMARY KEY AUTOINCREMENT (numeric ids on the wire)
//   - users.email is UNIQUE; duplicate registration is caught by the
//     constraint, not by a lookup-then-insert
//   - favorites has UNIQUE(user_id, item_id); the duplicate-favorite policy
//     is enforced here once, atomically, for every code path
//   - feedback has NO uniqueness — repeated submissions accumulate
//   - every user_id/item_id column is a declared foreign key and
//     PRAGMA foreign_keys=ON makes SQLite actually enforce them
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under
	// the name "sqlite" in its init function.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out one repository per
// entity, all sharing the same pool. The server owns the lifecycle: New
// at startup, Close on shutdown.
type DB struct {
	conn *sql.DB

	Users     *UserRepo
	Items     *ItemRepo
	Favorites *FavoriteRepo
	Feedback  *FeedbackRepo
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to one connection in that mode.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent readers proceed while a write is in flight —
	// important for a web server sharing one database file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The ownership model
	// (items/favorites/feedback → users) depends on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:      conn,
		Users:     &UserRepo{conn: conn},
		Items:     &ItemRepo{conn: conn},
		Favorites: &FavoriteRepo{conn: conn},
		Feedback:  &FeedbackRepo{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying pool for the seeder's bulk truncates.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start; for anything fancier reach for golang-migrate.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id                INTEGER NOT NULL REFERENCES users(id),
			name                   TEXT NOT NULL,
			description            TEXT NOT NULL DEFAULT '',
			location               TEXT NOT NULL DEFAULT '',
			condition              TEXT NOT NULL DEFAULT '',
			time_to_be_set_on_curb DATETIME NOT NULL,
			image                  TEXT NOT NULL,
			created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_items_user_id ON items(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}

	// UNIQUE(user_id, item_id) is the whole duplicate-favorite policy:
	// Add() is a single INSERT OR IGNORE against this constraint.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			item_id INTEGER NOT NULL REFERENCES items(id),
			UNIQUE(user_id, item_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating favorites table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       INTEGER NOT NULL REFERENCES users(id),
			item_id       INTEGER NOT NULL REFERENCES items(id),
			feedback_type TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_item_id ON feedback(item_id);
	`)
	if err != nil {
		return fmt.Errorf("creating feedback table: %w", err)
	}

	return nil
}
