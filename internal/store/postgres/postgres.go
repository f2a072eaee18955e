// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

// Open opens a PostgreSQL connection and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New constructs a Postgres-backed store from an open connection.
func New(db *sql.DB) store.Store { return &pgStore{db: db, q: db} }

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type pgStore struct {
	db   *sql.DB
	q    querier
	inTx bool
}

func (s *pgStore) Collections() store.Collections { return &collections{q: s.q} }
func (s *pgStore) Folders() store.Folders         { return &folders{q: s.q} }
func (s *pgStore) Tabs() store.Tabs               { return &tabs{q: s.q} }
func (s *pgStore) Tasks() store.Tasks             { return &tasks{q: s.q} }
func (s *pgStore) Snoozes() store.Snoozes         { return &snoozes{q: s.q} }

func (s *pgStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	view := &pgStore{db: s.db, q: tx, inTx: true}
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}
	return mapErr(tx.Commit())
}

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapErr translates driver errors into the model taxonomy. Disk-full class
// errors (53100) surface as ErrCapacityExceeded, distinct from ErrNotFound.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "53100" || pgErr.Code == "53200") {
		return fmt.Errorf("%w: %v", model.ErrCapacityExceeded, err)
	}
	return err
}

// EnsureSchema creates tables and indexes if absent. Production deployments
// run migrations instead; this keeps dev and test setups self-sufficient.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS collections (
    collection_id TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    icon          TEXT NOT NULL DEFAULT '',
    color         TEXT NOT NULL DEFAULT '',
    tags          JSONB NOT NULL DEFAULT '[]',
    is_active     BOOLEAN NOT NULL DEFAULT FALSE,
    window_id     INTEGER,
    settings      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL,
    last_accessed TIMESTAMPTZ,
    tab_count     INTEGER NOT NULL DEFAULT 0,
    folder_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_collections_active ON collections(is_active);
CREATE INDEX IF NOT EXISTS idx_collections_last_accessed ON collections(last_accessed);
CREATE INDEX IF NOT EXISTS idx_collections_tags ON collections USING GIN (tags);

CREATE TABLE IF NOT EXISTS folders (
    folder_id     TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    name          TEXT NOT NULL,
    color         TEXT NOT NULL DEFAULT '',
    collapsed     BOOLEAN NOT NULL DEFAULT FALSE,
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
    is_pinned     BOOLEAN NOT NULL DEFAULT FALSE,
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
    due_date      TIMESTAMPTZ,
    tags          JSONB NOT NULL DEFAULT '[]',
    tab_ids       JSONB NOT NULL DEFAULT '[]',
    comments      JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL,
    completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_tasks_collection ON tasks(collection_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_tags ON tasks USING GIN (tags);

CREATE TABLE IF NOT EXISTS snoozed_tabs (
    snooze_id        TEXT PRIMARY KEY,
    url              TEXT NOT NULL,
    title            TEXT NOT NULL DEFAULT '',
    favicon          TEXT NOT NULL DEFAULT '',
    wake_time        TIMESTAMPTZ NOT NULL,
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
    focused      BOOLEAN NOT NULL DEFAULT FALSE,
    incognito    BOOLEAN NOT NULL DEFAULT FALSE,
    snooze_until TIMESTAMPTZ NOT NULL
);
`)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// --- Collections ---

type collections struct{ q querier }

const collectionCols = `collection_id, name, description, icon, color, tags, is_active, window_id, settings, created_at, last_accessed, tab_count, folder_count`

func (c *collections) Create(ctx context.Context, m *model.Collection) (*model.Collection, error) {
	out := *m
	if out.CollectionID == "" {
		out.CollectionID = uuid.New().String()
	}
	if out.Metadata.CreatedAt.IsZero() {
		out.Metadata.CreatedAt = time.Now().UTC()
	}
	tagsJSON, _ := json.Marshal(out.Tags)
	settingsJSON, _ := json.Marshal(out.Settings)
	_, err := c.q.ExecContext(ctx, `INSERT INTO collections (`+collectionCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		out.CollectionID, out.Name, out.Description, out.Icon, out.Color, string(tagsJSON),
		out.IsActive, out.WindowID, string(settingsJSON),
		out.Metadata.CreatedAt, out.Metadata.LastAccessed, out.Metadata.TabCount, out.Metadata.FolderCount)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (c *collections) Get(ctx context.Context, collectionID string) (*model.Collection, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+collectionCols+` FROM collections WHERE collection_id = $1`, collectionID)
	return scanCollection(row)
}

func (c *collections) Update(ctx context.Context, m *model.Collection) (*model.Collection, error) {
	tagsJSON, _ := json.Marshal(m.Tags)
	settingsJSON, _ := json.Marshal(m.Settings)
	res, err := c.q.ExecContext(ctx, `UPDATE collections SET name=$1, description=$2, icon=$3, color=$4, tags=$5, is_active=$6, window_id=$7, settings=$8, last_accessed=$9, tab_count=$10, folder_count=$11 WHERE collection_id=$12`,
		m.Name, m.Description, m.Icon, m.Color, string(tagsJSON), m.IsActive, m.WindowID, string(settingsJSON),
		m.Metadata.LastAccessed, m.Metadata.TabCount, m.Metadata.FolderCount, m.CollectionID)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return c.Get(ctx, m.CollectionID)
}

func (c *collections) List(ctx context.Context) ([]*model.Collection, error) {
	return c.list(ctx, `SELECT `+collectionCols+` FROM collections ORDER BY last_accessed DESC NULLS LAST, created_at DESC`)
}

func (c *collections) ListActive(ctx context.Context) ([]*model.Collection, error) {
	return c.list(ctx, `SELECT `+collectionCols+` FROM collections WHERE is_active`)
}

func (c *collections) ListByTag(ctx context.Context, tag string) ([]*model.Collection, error) {
	return c.list(ctx, `SELECT `+collectionCols+` FROM collections WHERE tags @> jsonb_build_array($1::text)`, tag)
}

func (c *collections) Delete(ctx context.Context, collectionID string) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM collections WHERE collection_id = $1`, collectionID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (c *collections) list(ctx context.Context, query string, args ...interface{}) ([]*model.Collection, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.Collection
	for rows.Next() {
		m, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanCollection(row rowScanner) (*model.Collection, error) {
	var m model.Collection
	var tagsJSON, settingsJSON []byte
	if err := row.Scan(&m.CollectionID, &m.Name, &m.Description, &m.Icon, &m.Color, &tagsJSON,
		&m.IsActive, &m.WindowID, &settingsJSON,
		&m.Metadata.CreatedAt, &m.Metadata.LastAccessed, &m.Metadata.TabCount, &m.Metadata.FolderCount); err != nil {
		return nil, mapErr(err)
	}
	_ = json.Unmarshal(tagsJSON, &m.Tags)
	_ = json.Unmarshal(settingsJSON, &m.Settings)
	return &m, nil
}

// --- Folders ---

type folders struct{ q querier }

func (f *folders) Create(ctx context.Context, m *model.Folder) (*model.Folder, error) {
	out := *m
	if out.FolderID == "" {
		out.FolderID = uuid.New().String()
	}
	_, err := f.q.ExecContext(ctx, `INSERT INTO folders (folder_id, collection_id, name, color, collapsed, position) VALUES ($1,$2,$3,$4,$5,$6)`,
		out.FolderID, out.CollectionID, out.Name, out.Color, out.Collapsed, out.Position)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (f *folders) Get(ctx context.Context, folderID string) (*model.Folder, error) {
	row := f.q.QueryRowContext(ctx, `SELECT folder_id, collection_id, name, color, collapsed, position FROM folders WHERE folder_id = $1`, folderID)
	var m model.Folder
	if err := row.Scan(&m.FolderID, &m.CollectionID, &m.Name, &m.Color, &m.Collapsed, &m.Position); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (f *folders) Update(ctx context.Context, m *model.Folder) (*model.Folder, error) {
	res, err := f.q.ExecContext(ctx, `UPDATE folders SET name=$1, color=$2, collapsed=$3, position=$4 WHERE folder_id=$5`,
		m.Name, m.Color, m.Collapsed, m.Position, m.FolderID)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return f.Get(ctx, m.FolderID)
}

func (f *folders) ListByCollection(ctx context.Context, collectionID string) ([]*model.Folder, error) {
	rows, err := f.q.QueryContext(ctx, `SELECT folder_id, collection_id, name, color, collapsed, position FROM folders WHERE collection_id = $1 ORDER BY position`, collectionID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.Folder
	for rows.Next() {
		var m model.Folder
		if err := rows.Scan(&m.FolderID, &m.CollectionID, &m.Name, &m.Color, &m.Collapsed, &m.Position); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (f *folders) Delete(ctx context.Context, folderID string) error {
	res, err := f.q.ExecContext(ctx, `DELETE FROM folders WHERE folder_id = $1`, folderID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (f *folders) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := f.q.ExecContext(ctx, `DELETE FROM folders WHERE collection_id = $1`, collectionID)
	return mapErr(err)
}

// --- Tabs ---

type tabs struct{ q querier }

const tabCols = `tab_record_id, collection_id, folder_id, url, title, favicon, note, position, is_pinned, runtime_id`

func (t *tabs) Create(ctx context.Context, m *model.Tab) (*model.Tab, error) {
	out := *m
	if out.TabRecordID == "" {
		out.TabRecordID = uuid.New().String()
	}
	_, err := t.q.ExecContext(ctx, `INSERT INTO tabs (`+tabCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		out.TabRecordID, out.CollectionID, out.FolderID, out.URL, out.Title, out.FavIconURL, out.Note,
		out.Position, out.IsPinned, out.RuntimeID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (t *tabs) Get(ctx context.Context, tabRecordID string) (*model.Tab, error) {
	row := t.q.QueryRowContext(ctx, `SELECT `+tabCols+` FROM tabs WHERE tab_record_id = $1`, tabRecordID)
	return scanTab(row)
}

func (t *tabs) Update(ctx context.Context, m *model.Tab) (*model.Tab, error) {
	res, err := t.q.ExecContext(ctx, `UPDATE tabs SET folder_id=$1, url=$2, title=$3, favicon=$4, note=$5, position=$6, is_pinned=$7, runtime_id=$8 WHERE tab_record_id=$9`,
		m.FolderID, m.URL, m.Title, m.FavIconURL, m.Note, m.Position, m.IsPinned, m.RuntimeID, m.TabRecordID)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return t.Get(ctx, m.TabRecordID)
}

func (t *tabs) SetRuntimeID(ctx context.Context, tabRecordID string, runtimeID *int) error {
	res, err := t.q.ExecContext(ctx, `UPDATE tabs SET runtime_id = $1 WHERE tab_record_id = $2`, runtimeID, tabRecordID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tabs) ListByFolder(ctx context.Context, folderID string) ([]*model.Tab, error) {
	return t.list(ctx, `SELECT `+tabCols+` FROM tabs WHERE folder_id = $1 ORDER BY position`, folderID)
}

func (t *tabs) ListByCollection(ctx context.Context, collectionID string) ([]*model.Tab, error) {
	return t.list(ctx, `SELECT `+tabCols+` FROM tabs WHERE collection_id = $1 ORDER BY position`, collectionID)
}

func (t *tabs) Delete(ctx context.Context, tabRecordID string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tabs WHERE tab_record_id = $1`, tabRecordID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tabs) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM tabs WHERE collection_id = $1`, collectionID)
	return mapErr(err)
}

func (t *tabs) list(ctx context.Context, query string, args ...interface{}) ([]*model.Tab, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.Tab
	for rows.Next() {
		m, err := scanTab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanTab(row rowScanner) (*model.Tab, error) {
	var m model.Tab
	if err := row.Scan(&m.TabRecordID, &m.CollectionID, &m.FolderID, &m.URL, &m.Title, &m.FavIconURL,
		&m.Note, &m.Position, &m.IsPinned, &m.RuntimeID); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

// --- Tasks ---

type tasks struct{ q querier }

const taskCols = `task_id, collection_id, summary, notes, status, priority, due_date, tags, tab_ids, comments, created_at, completed_at`

func (t *tasks) Create(ctx context.Context, m *model.Task) (*model.Task, error) {
	out := *m
	if out.TaskID == "" {
		out.TaskID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	tagsJSON, _ := json.Marshal(out.Tags)
	tabIDsJSON, _ := json.Marshal(out.TabIDs)
	commentsJSON, _ := json.Marshal(out.Comments)
	_, err := t.q.ExecContext(ctx, `INSERT INTO tasks (`+taskCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		out.TaskID, out.CollectionID, out.Summary, out.Notes, out.Status, out.Priority, out.DueDate,
		string(tagsJSON), string(tabIDsJSON), string(commentsJSON), out.CreatedAt, out.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, taskID string) (*model.Task, error) {
	row := t.q.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE task_id = $1`, taskID)
	return scanTask(row)
}

func (t *tasks) Update(ctx context.Context, m *model.Task) (*model.Task, error) {
	tagsJSON, _ := json.Marshal(m.Tags)
	tabIDsJSON, _ := json.Marshal(m.TabIDs)
	commentsJSON, _ := json.Marshal(m.Comments)
	res, err := t.q.ExecContext(ctx, `UPDATE tasks SET collection_id=$1, summary=$2, notes=$3, status=$4, priority=$5, due_date=$6, tags=$7, tab_ids=$8, comments=$9, completed_at=$10 WHERE task_id=$11`,
		m.CollectionID, m.Summary, m.Notes, m.Status, m.Priority, m.DueDate,
		string(tagsJSON), string(tabIDsJSON), string(commentsJSON), m.CompletedAt, m.TaskID)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return t.Get(ctx, m.TaskID)
}

func (t *tasks) List(ctx context.Context) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks ORDER BY created_at DESC`)
}

func (t *tasks) ListByCollection(ctx context.Context, collectionID string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE collection_id = $1 ORDER BY created_at DESC`, collectionID)
}

func (t *tasks) ListByStatus(ctx context.Context, status string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE status = $1 ORDER BY created_at DESC`, status)
}

func (t *tasks) ListByPriority(ctx context.Context, priority string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE priority = $1 ORDER BY created_at DESC`, priority)
}

func (t *tasks) ListByTag(ctx context.Context, tag string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE tags @> jsonb_build_array($1::text) ORDER BY created_at DESC`, tag)
}

func (t *tasks) ListDueBefore(ctx context.Context, by time.Time) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE due_date IS NOT NULL AND due_date <= $1 ORDER BY due_date`, by)
}

func (t *tasks) Delete(ctx context.Context, taskID string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = $1`, taskID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tasks) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE collection_id = $1`, collectionID)
	return mapErr(err)
}

func (t *tasks) list(ctx context.Context, query string, args ...interface{}) ([]*model.Task, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.Task
	for rows.Next() {
		m, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanTask(row rowScanner) (*model.Task, error) {
	var m model.Task
	var tagsJSON, tabIDsJSON, commentsJSON []byte
	if err := row.Scan(&m.TaskID, &m.CollectionID, &m.Summary, &m.Notes, &m.Status, &m.Priority,
		&m.DueDate, &tagsJSON, &tabIDsJSON, &commentsJSON, &m.CreatedAt, &m.CompletedAt); err != nil {
		return nil, mapErr(err)
	}
	_ = json.Unmarshal(tagsJSON, &m.Tags)
	_ = json.Unmarshal(tabIDsJSON, &m.TabIDs)
	_ = json.Unmarshal(commentsJSON, &m.Comments)
	return &m, nil
}

// --- Snoozes ---

type snoozes struct{ q querier }

const snoozedTabCols = `snooze_id, url, title, favicon, wake_time, snooze_reason, window_snooze_id`

func (s *snoozes) PutTab(ctx context.Context, m *model.SnoozedTab) (*model.SnoozedTab, error) {
	out := *m
	if out.SnoozeID == "" {
		out.SnoozeID = uuid.New().String()
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO snoozed_tabs (`+snoozedTabCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (snooze_id) DO UPDATE SET url=EXCLUDED.url, title=EXCLUDED.title, favicon=EXCLUDED.favicon, wake_time=EXCLUDED.wake_time, snooze_reason=EXCLUDED.snooze_reason, window_snooze_id=EXCLUDED.window_snooze_id`,
		out.SnoozeID, out.URL, out.Title, out.FavIconURL, out.WakeTime, out.SnoozeReason, out.WindowSnoozeID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (s *snoozes) GetTab(ctx context.Context, snoozeID string) (*model.SnoozedTab, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs WHERE snooze_id = $1`, snoozeID)
	return scanSnoozedTab(row)
}

func (s *snoozes) ListTabs(ctx context.Context) ([]*model.SnoozedTab, error) {
	return s.list(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs ORDER BY wake_time`)
}

func (s *snoozes) ListTabsDue(ctx context.Context, by time.Time) ([]*model.SnoozedTab, error) {
	return s.list(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs WHERE wake_time <= $1 ORDER BY wake_time`, by)
}

func (s *snoozes) ListTabsByWindowSnooze(ctx context.Context, windowSnoozeID string) ([]*model.SnoozedTab, error) {
	return s.list(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs WHERE window_snooze_id = $1 ORDER BY wake_time`, windowSnoozeID)
}

func (s *snoozes) DeleteTab(ctx context.Context, snoozeID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM snoozed_tabs WHERE snooze_id = $1`, snoozeID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *snoozes) PutWindowMetadata(ctx context.Context, m *model.WindowMetadata) error {
	_, err := s.q.ExecContext(ctx, `INSERT INTO window_metadata (snooze_id, window_id, win_left, win_top, width, height, state, type, focused, incognito, snooze_until) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (snooze_id) DO UPDATE SET window_id=EXCLUDED.window_id, win_left=EXCLUDED.win_left, win_top=EXCLUDED.win_top, width=EXCLUDED.width, height=EXCLUDED.height, state=EXCLUDED.state, type=EXCLUDED.type, focused=EXCLUDED.focused, incognito=EXCLUDED.incognito, snooze_until=EXCLUDED.snooze_until`,
		m.SnoozeID, m.WindowID, m.Left, m.Top, m.Width, m.Height, m.State, m.Type, m.Focused, m.Incognito, m.SnoozeUntil)
	return mapErr(err)
}

func (s *snoozes) GetWindowMetadata(ctx context.Context, snoozeID string) (*model.WindowMetadata, error) {
	row := s.q.QueryRowContext(ctx, `SELECT snooze_id, window_id, win_left, win_top, width, height, state, type, focused, incognito, snooze_until FROM window_metadata WHERE snooze_id = $1`, snoozeID)
	var m model.WindowMetadata
	err := row.Scan(&m.SnoozeID, &m.WindowID, &m.Left, &m.Top, &m.Width, &m.Height, &m.State, &m.Type, &m.Focused, &m.Incognito, &m.SnoozeUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *snoozes) DeleteWindowMetadata(ctx context.Context, snoozeID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM window_metadata WHERE snooze_id = $1`, snoozeID)
	return mapErr(err)
}

func (s *snoozes) list(ctx context.Context, query string, args ...interface{}) ([]*model.SnoozedTab, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.SnoozedTab
	for rows.Next() {
		m, err := scanSnoozedTab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanSnoozedTab(row rowScanner) (*model.SnoozedTab, error) {
	var m model.SnoozedTab
	if err := row.Scan(&m.SnoozeID, &m.URL, &m.Title, &m.FavIconURL, &m.WakeTime, &m.SnoozeReason, &m.WindowSnoozeID); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}
