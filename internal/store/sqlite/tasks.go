package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tabvault/tabvault/server/internal/model"
)

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
	_, err := t.q.ExecContext(ctx, `INSERT INTO tasks (`+taskCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.TaskID, out.CollectionID, out.Summary, out.Notes, out.Status, out.Priority, out.DueDate,
		string(tagsJSON), string(tabIDsJSON), string(commentsJSON), out.CreatedAt, out.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, taskID string) (*model.Task, error) {
	row := t.q.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE task_id = ?`, taskID)
	return scanTask(row)
}

func (t *tasks) Update(ctx context.Context, m *model.Task) (*model.Task, error) {
	tagsJSON, _ := json.Marshal(m.Tags)
	tabIDsJSON, _ := json.Marshal(m.TabIDs)
	commentsJSON, _ := json.Marshal(m.Comments)
	res, err := t.q.ExecContext(ctx, `UPDATE tasks SET collection_id=?, summary=?, notes=?, status=?, priority=?, due_date=?, tags=?, tab_ids=?, comments=?, completed_at=? WHERE task_id=?`,
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
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE collection_id = ? ORDER BY created_at DESC`, collectionID)
}

func (t *tasks) ListByStatus(ctx context.Context, status string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE status = ? ORDER BY created_at DESC`, status)
}

func (t *tasks) ListByPriority(ctx context.Context, priority string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE priority = ? ORDER BY created_at DESC`, priority)
}

func (t *tasks) ListByTag(ctx context.Context, tag string) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value = ?) ORDER BY created_at DESC`, tag)
}

func (t *tasks) ListDueBefore(ctx context.Context, by time.Time) ([]*model.Task, error) {
	return t.list(ctx, `SELECT `+taskCols+` FROM tasks WHERE due_date IS NOT NULL AND due_date <= ? ORDER BY due_date`, by)
}

func (t *tasks) Delete(ctx context.Context, taskID string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ?`, taskID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tasks) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE collection_id = ?`, collectionID)
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
	var tagsJSON, tabIDsJSON, commentsJSON string
	if err := row.Scan(&m.TaskID, &m.CollectionID, &m.Summary, &m.Notes, &m.Status, &m.Priority,
		&m.DueDate, &tagsJSON, &tabIDsJSON, &commentsJSON, &m.CreatedAt, &m.CompletedAt); err != nil {
		return nil, mapErr(err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	_ = json.Unmarshal([]byte(tabIDsJSON), &m.TabIDs)
	_ = json.Unmarshal([]byte(commentsJSON), &m.Comments)
	return &m, nil
}
