package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/tabvault/tabvault/server/internal/model"
)

type folders struct{ q querier }

func (f *folders) Create(ctx context.Context, m *model.Folder) (*model.Folder, error) {
	out := *m
	if out.FolderID == "" {
		out.FolderID = uuid.New().String()
	}
	_, err := f.q.ExecContext(ctx, `INSERT INTO folders (folder_id, collection_id, name, color, collapsed, position) VALUES (?,?,?,?,?,?)`,
		out.FolderID, out.CollectionID, out.Name, out.Color, out.Collapsed, out.Position)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (f *folders) Get(ctx context.Context, folderID string) (*model.Folder, error) {
	row := f.q.QueryRowContext(ctx, `SELECT folder_id, collection_id, name, color, collapsed, position FROM folders WHERE folder_id = ?`, folderID)
	var m model.Folder
	if err := row.Scan(&m.FolderID, &m.CollectionID, &m.Name, &m.Color, &m.Collapsed, &m.Position); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (f *folders) Update(ctx context.Context, m *model.Folder) (*model.Folder, error) {
	res, err := f.q.ExecContext(ctx, `UPDATE folders SET name=?, color=?, collapsed=?, position=? WHERE folder_id=?`,
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
	rows, err := f.q.QueryContext(ctx, `SELECT folder_id, collection_id, name, color, collapsed, position FROM folders WHERE collection_id = ? ORDER BY position`, collectionID)
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
	res, err := f.q.ExecContext(ctx, `DELETE FROM folders WHERE folder_id = ?`, folderID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (f *folders) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := f.q.ExecContext(ctx, `DELETE FROM folders WHERE collection_id = ?`, collectionID)
	return mapErr(err)
}
