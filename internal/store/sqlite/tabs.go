package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/tabvault/tabvault/server/internal/model"
)

type tabs struct{ q querier }

const tabCols = `tab_record_id, collection_id, folder_id, url, title, favicon, note, position, is_pinned, runtime_id`

func (t *tabs) Create(ctx context.Context, m *model.Tab) (*model.Tab, error) {
	out := *m
	if out.TabRecordID == "" {
		out.TabRecordID = uuid.New().String()
	}
	_, err := t.q.ExecContext(ctx, `INSERT INTO tabs (`+tabCols+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		out.TabRecordID, out.CollectionID, out.FolderID, out.URL, out.Title, out.FavIconURL, out.Note,
		out.Position, out.IsPinned, out.RuntimeID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (t *tabs) Get(ctx context.Context, tabRecordID string) (*model.Tab, error) {
	row := t.q.QueryRowContext(ctx, `SELECT `+tabCols+` FROM tabs WHERE tab_record_id = ?`, tabRecordID)
	return scanTab(row)
}

func (t *tabs) Update(ctx context.Context, m *model.Tab) (*model.Tab, error) {
	res, err := t.q.ExecContext(ctx, `UPDATE tabs SET folder_id=?, url=?, title=?, favicon=?, note=?, position=?, is_pinned=?, runtime_id=? WHERE tab_record_id=?`,
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
	res, err := t.q.ExecContext(ctx, `UPDATE tabs SET runtime_id = ? WHERE tab_record_id = ?`, runtimeID, tabRecordID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tabs) ListByFolder(ctx context.Context, folderID string) ([]*model.Tab, error) {
	return t.list(ctx, `SELECT `+tabCols+` FROM tabs WHERE folder_id = ? ORDER BY position`, folderID)
}

func (t *tabs) ListByCollection(ctx context.Context, collectionID string) ([]*model.Tab, error) {
	return t.list(ctx, `SELECT `+tabCols+` FROM tabs WHERE collection_id = ? ORDER BY position`, collectionID)
}

func (t *tabs) Delete(ctx context.Context, tabRecordID string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tabs WHERE tab_record_id = ?`, tabRecordID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tabs) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM tabs WHERE collection_id = ?`, collectionID)
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
