// Package sqlite implements store.Store on a local SQLite database using the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

// Open opens (or creates) a SQLite database file, enables foreign keys, and
// bootstraps the schema.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New constructs a SQLite-backed store from an open connection.
func New(db *sql.DB) store.Store { return &sqlStore{db: db, q: db} }

// querier is satisfied by both *sql.DB and *sql.Tx so entity accessors work
// inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type sqlStore struct {
	db   *sql.DB
	q    querier
	inTx bool
}

func (s *sqlStore) Collections() store.Collections { return &collections{q: s.q} }
func (s *sqlStore) Folders() store.Folders         { return &folders{q: s.q} }
func (s *sqlStore) Tabs() store.Tabs               { return &tabs{q: s.q} }
func (s *sqlStore) Tasks() store.Tasks             { return &tasks{q: s.q} }
func (s *sqlStore) Snoozes() store.Snoozes         { return &snoozes{q: s.q} }

func (s *sqlStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	view := &sqlStore{db: s.db, q: tx, inTx: true}
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}
	return mapErr(tx.Commit())
}

// HealthPing implements health.HealthPinger.
func (s *sqlStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying connection (local tooling only).
func (s *sqlStore) DB() *sql.DB { return s.db }

// mapErr translates driver errors into the model taxonomy. SQLITE_FULL must
// surface as ErrCapacityExceeded so callers can distinguish "storage full"
// from "not found".
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	var se *sqlite3.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlitelib.SQLITE_FULL {
		return fmt.Errorf("%w: %v", model.ErrCapacityExceeded, err)
	}
	return err
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS collections (
    collection_id TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    icon          TEXT NOT NULL DEFAULT '',
    color         TEXT NOT NULL DEFAULT '',
    tags          TEXT NOT NULL DEFAULT '[]',
    is_active     INTEGER NOT NULL DEFAULT 0,
    window_id     INTEGER,
    settings      TEXT NOT NULL DEFAULT '{}',
    created_at    TIMESTAMP NOT NULL,
    last_accessed TIMESTAMP,
    tab_count     INTEGER NOT NULL DEFAULT 0,
    folder_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_collections_active ON collections(is_active);
CREATE INDEX IF NOT EXISTS idx_collections_last_accessed ON collections(last_accessed);

CREATE TABLE IF NOT EXISTS folders (
    folder_id     TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    name          TEXT NOT NULL,
    color         TEXT NOT NULL DEFAULT '',
    collapsed     INTEGER NOT NULL DEFAULT 0,
    position      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_folders_collection ON folders(collection_id);

CREATE TABLE IF NOT EXISTS tabs (
    tab_record_id TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    folder_id     TEXT,
    url           TEXT NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    favicon       TEXT NOT NULL DEFAULT '',
    note          TEXT NOT NULL DEFAULT '',
    position      INTEGER NOT NULL DEFAULT 0,
    is_pinned     INTEGER NOT NULL DEFAULT 0,
    runtime_id    INTEGER
);
CREATE INDEX IF NOT EXISTS idx_tabs_folder ON tabs(folder_id);
CREATE INDEX IF NOT EXISTS idx_tabs_collection ON tabs(collection_id);

CREATE TABLE IF NOT EXISTS tasks (
    task_id       TEXT PRIMARY KEY,
    collection_id TEXT,
    summary       TEXT NOT NULL,
    notes         TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    priority      TEXT NOT NULL,
    due_date      TIMESTAMP,
    tags          TEXT NOT NULL DEFAULT '[]',
    tab_ids       TEXT NOT NULL DEFAULT '[]',
    comments      TEXT NOT NULL DEFAULT '[]',
    created_at    TIMESTAMP NOT NULL,
    completed_at  TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_collection ON tasks(collection_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);

CREATE TABLE IF NOT EXISTS snoozed_tabs (
    snooze_id        TEXT PRIMARY KEY,
    url              TEXT NOT NULL,
    title            TEXT NOT NULL DEFAULT '',
    favicon          TEXT NOT NULL DEFAULT '',
    wake_time        TIMESTAMP NOT NULL,
    snooze_reason    TEXT NOT NULL DEFAULT '',
    window_snooze_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_snoozed_tabs_wake ON snoozed_tabs(wake_time);
CREATE INDEX IF NOT EXISTS idx_snoozed_tabs_window ON snoozed_tabs(window_snooze_id);

CREATE TABLE IF NOT EXISTS window_metadata (
    snooze_id    TEXT PRIMARY KEY,
    window_id    INTEGER NOT NULL,
    win_left     INTEGER NOT NULL DEFAULT 0,
    win_top      INTEGER NOT NULL DEFAULT 0,
    width        INTEGER NOT NULL DEFAULT 0,
    height       INTEGER NOT NULL DEFAULT 0,
    state        TEXT NOT NULL DEFAULT 'normal',
    type         TEXT NOT NULL DEFAULT 'normal',
    focused      INTEGER NOT NULL DEFAULT 0,
    incognito    INTEGER NOT NULL DEFAULT 0,
    snooze_until TIMESTAMP NOT NULL
);
`)
	return err
}
