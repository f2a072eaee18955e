package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tabvault/tabvault/server/internal/model"
)

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
	_, err := c.q.ExecContext(ctx, `INSERT INTO collections (`+collectionCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.CollectionID, out.Name, out.Description, out.Icon, out.Color, string(tagsJSON),
		out.IsActive, out.WindowID, string(settingsJSON),
		out.Metadata.CreatedAt, out.Metadata.LastAccessed, out.Metadata.TabCount, out.Metadata.FolderCount)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (c *collections) Get(ctx context.Context, collectionID string) (*model.Collection, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+collectionCols+` FROM collections WHERE collection_id = ?`, collectionID)
	return scanCollection(row)
}

func (c *collections) Update(ctx context.Context, m *model.Collection) (*model.Collection, error) {
	tagsJSON, _ := json.Marshal(m.Tags)
	settingsJSON, _ := json.Marshal(m.Settings)
	res, err := c.q.ExecContext(ctx, `UPDATE collections SET name=?, description=?, icon=?, color=?, tags=?, is_active=?, window_id=?, settings=?, last_accessed=?, tab_count=?, folder_count=? WHERE collection_id=?`,
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
	return c.list(ctx, `SELECT `+collectionCols+` FROM collections ORDER BY last_accessed DESC, created_at DESC`)
}

func (c *collections) ListActive(ctx context.Context) ([]*model.Collection, error) {
	return c.list(ctx, `SELECT `+collectionCols+` FROM collections WHERE is_active = 1`)
}

func (c *collections) ListByTag(ctx context.Context, tag string) ([]*model.Collection, error) {
	return c.list(ctx, `SELECT `+collectionCols+` FROM collections WHERE EXISTS (SELECT 1 FROM json_each(collections.tags) WHERE json_each.value = ?)`, tag)
}

func (c *collections) Delete(ctx context.Context, collectionID string) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM collections WHERE collection_id = ?`, collectionID)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCollection(row rowScanner) (*model.Collection, error) {
	var m model.Collection
	var tagsJSON, settingsJSON string
	if err := row.Scan(&m.CollectionID, &m.Name, &m.Description, &m.Icon, &m.Color, &tagsJSON,
		&m.IsActive, &m.WindowID, &settingsJSON,
		&m.Metadata.CreatedAt, &m.Metadata.LastAccessed, &m.Metadata.TabCount, &m.Metadata.FolderCount); err != nil {
		return nil, mapErr(err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	_ = json.Unmarshal([]byte(settingsJSON), &m.Settings)
	return &m, nil
}
