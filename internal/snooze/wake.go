package snooze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/model"
)

// WakeResult reports a wake operation.
type WakeResult struct {
	Success  bool     `json:"success"`
	WindowID int      `json:"windowId,omitempty"`
	TabCount int      `json:"tabCount"`
	Errors   []string `json:"errors,omitempty"`
}

// WakeWindowSnooze restores every pending tab of a window snooze into a new
// window. Zero pending tabs means the snooze was already consumed or never
// existed; leftover metadata is cleaned up and the wake fails. Missing
// window metadata is the opposite case: losing the window's chrome is an
// acceptable degradation, losing the tabs is not, so a fallback window is
// synthesized.
func (s *Service) WakeWindowSnooze(ctx context.Context, windowSnoozeID string) (*WakeResult, error) {
	records, err := s.store.Snoozes().ListTabsByWindowSnooze(ctx, windowSnoozeID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if err := s.windows.DeleteMetadata(ctx, windowSnoozeID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("window snooze %s has no pending tabs: %w", windowSnoozeID, model.ErrNotFound)
	}

	meta, err := s.windows.Metadata(ctx, windowSnoozeID)
	if err != nil {
		return nil, err
	}
	req := browser.CreateWindowRequest{State: "normal", Type: "normal", Focused: true}
	if meta != nil {
		req = browser.CreateWindowRequest{
			Left:      &meta.Left,
			Top:       &meta.Top,
			Width:     &meta.Width,
			Height:    &meta.Height,
			State:     meta.State,
			Type:      meta.Type,
			Focused:   meta.Focused,
			Incognito: meta.Incognito,
		}
	}
	w, err := s.browser.CreateWindow(ctx, req)
	if err != nil {
		return nil, err
	}
	var defaultTabID int
	if tabs, err := s.browser.Tabs(ctx, w.ID); err == nil && len(tabs) > 0 {
		defaultTabID = tabs[0].ID
	}

	res := &WakeResult{Success: true, WindowID: w.ID}
	for _, rec := range records {
		if _, err := s.browser.CreateTab(ctx, browser.CreateTabRequest{WindowID: w.ID, URL: rec.URL}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("restore %q: %v", rec.URL, err))
			continue
		}
		// Records are consumed one by one, not wiped wholesale, so the
		// pending cache stays consistent even on a partial failure.
		if err := s.store.Snoozes().DeleteTab(ctx, rec.SnoozeID); err != nil && !errors.Is(err, model.ErrNotFound) {
			res.Errors = append(res.Errors, fmt.Sprintf("consume %s: %v", rec.SnoozeID, err))
			continue
		}
		s.dropPending(rec.SnoozeID)
		res.TabCount++
	}
	if defaultTabID != 0 && res.TabCount > 0 {
		_ = s.browser.RemoveTab(ctx, defaultTabID)
	}
	if err := s.windows.DeleteMetadata(ctx, windowSnoozeID); err != nil && !errors.Is(err, model.ErrNotFound) {
		res.Errors = append(res.Errors, fmt.Sprintf("delete window metadata: %v", err))
	}
	s.scheduleNext()

	s.log.Info().
		Str("windowSnoozeId", windowSnoozeID).
		Int("windowId", w.ID).
		Int("tabs", res.TabCount).
		Msg("window snooze woken")
	return res, nil
}

// WakeTab restores a single snoozed tab into the most recently listed
// window, creating one when none is open.
func (s *Service) WakeTab(ctx context.Context, snoozeID string) (*WakeResult, error) {
	rec, err := s.store.Snoozes().GetTab(ctx, snoozeID)
	if err != nil {
		return nil, err
	}
	windowID, err := s.anyWindow(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.browser.CreateTab(ctx, browser.CreateTabRequest{WindowID: windowID, URL: rec.URL, Active: true}); err != nil {
		return nil, err
	}
	if err := s.store.Snoozes().DeleteTab(ctx, snoozeID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	s.dropPending(snoozeID)
	s.scheduleNext()
	return &WakeResult{Success: true, WindowID: windowID, TabCount: 1}, nil
}

// WakePending is the alarm-fired entry point: it wakes everything whose
// wake time has arrived. Window snoozes are woken as groups first, then
// stray individual tabs.
func (s *Service) WakePending(ctx context.Context, now time.Time) (*WakeResult, error) {
	due, err := s.store.Snoozes().ListTabsDue(ctx, now)
	if err != nil {
		return nil, err
	}
	res := &WakeResult{Success: true}
	if len(due) == 0 {
		s.scheduleNext()
		return res, nil
	}

	seen := make(map[string]bool)
	var windowSnoozes []string
	var singles []*model.SnoozedTab
	for _, rec := range due {
		if rec.WindowSnoozeID != nil {
			if !seen[*rec.WindowSnoozeID] {
				seen[*rec.WindowSnoozeID] = true
				windowSnoozes = append(windowSnoozes, *rec.WindowSnoozeID)
			}
			continue
		}
		singles = append(singles, rec)
	}

	for _, wsid := range windowSnoozes {
		wr, err := s.WakeWindowSnooze(ctx, wsid)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("window snooze %s: %v", wsid, err))
			continue
		}
		res.TabCount += wr.TabCount
		res.Errors = append(res.Errors, wr.Errors...)
	}

	if len(singles) > 0 {
		windowID, err := s.anyWindow(ctx)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("open wake window: %v", err))
		} else {
			for _, rec := range singles {
				if _, err := s.browser.CreateTab(ctx, browser.CreateTabRequest{WindowID: windowID, URL: rec.URL}); err != nil {
					res.Errors = append(res.Errors, fmt.Sprintf("restore %q: %v", rec.URL, err))
					continue
				}
				if err := s.store.Snoozes().DeleteTab(ctx, rec.SnoozeID); err != nil && !errors.Is(err, model.ErrNotFound) {
					res.Errors = append(res.Errors, fmt.Sprintf("consume %s: %v", rec.SnoozeID, err))
					continue
				}
				s.dropPending(rec.SnoozeID)
				res.TabCount++
			}
		}
	}
	s.scheduleNext()

	s.log.Info().Int("tabs", res.TabCount).Int("failures", len(res.Errors)).Msg("pending snoozes woken")
	return res, nil
}

func (s *Service) anyWindow(ctx context.Context) (int, error) {
	windows, err := s.browser.Windows(ctx)
	if err != nil {
		return 0, err
	}
	if len(windows) > 0 {
		return windows[0].ID, nil
	}
	w, err := s.browser.CreateWindow(ctx, browser.CreateWindowRequest{Focused: true})
	if err != nil {
		return 0, err
	}
	return w.ID, nil
}
