package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tabvault/tabvault/server/internal/model"
)

type snoozes struct{ q querier }

const snoozedTabCols = `snooze_id, url, title, favicon, wake_time, snooze_reason, window_snooze_id`

func (s *snoozes) PutTab(ctx context.Context, m *model.SnoozedTab) (*model.SnoozedTab, error) {
	out := *m
	if out.SnoozeID == "" {
		out.SnoozeID = uuid.New().String()
	}
	_, err := s.q.ExecContext(ctx, `INSERT OR REPLACE INTO snoozed_tabs (`+snoozedTabCols+`) VALUES (?,?,?,?,?,?,?)`,
		out.SnoozeID, out.URL, out.Title, out.FavIconURL, out.WakeTime, out.SnoozeReason, out.WindowSnoozeID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (s *snoozes) GetTab(ctx context.Context, snoozeID string) (*model.SnoozedTab, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs WHERE snooze_id = ?`, snoozeID)
	return scanSnoozedTab(row)
}

func (s *snoozes) ListTabs(ctx context.Context) ([]*model.SnoozedTab, error) {
	return s.list(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs ORDER BY wake_time`)
}

func (s *snoozes) ListTabsDue(ctx context.Context, by time.Time) ([]*model.SnoozedTab, error) {
	return s.list(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs WHERE wake_time <= ? ORDER BY wake_time`, by)
}

func (s *snoozes) ListTabsByWindowSnooze(ctx context.Context, windowSnoozeID string) ([]*model.SnoozedTab, error) {
	return s.list(ctx, `SELECT `+snoozedTabCols+` FROM snoozed_tabs WHERE window_snooze_id = ? ORDER BY wake_time`, windowSnoozeID)
}

func (s *snoozes) DeleteTab(ctx context.Context, snoozeID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM snoozed_tabs WHERE snooze_id = ?`, snoozeID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *snoozes) PutWindowMetadata(ctx context.Context, m *model.WindowMetadata) error {
	_, err := s.q.ExecContext(ctx, `INSERT OR REPLACE INTO window_metadata (snooze_id, window_id, win_left, win_top, width, height, state, type, focused, incognito, snooze_until) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		m.SnoozeID, m.WindowID, m.Left, m.Top, m.Width, m.Height, m.State, m.Type, m.Focused, m.Incognito, m.SnoozeUntil)
	return mapErr(err)
}

func (s *snoozes) GetWindowMetadata(ctx context.Context, snoozeID string) (*model.WindowMetadata, error) {
	row := s.q.QueryRowContext(ctx, `SELECT snooze_id, window_id, win_left, win_top, width, height, state, type, focused, incognito, snooze_until FROM window_metadata WHERE snooze_id = ?`, snoozeID)
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
	_, err := s.q.ExecContext(ctx, `DELETE FROM window_metadata WHERE snooze_id = ?`, snoozeID)
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
