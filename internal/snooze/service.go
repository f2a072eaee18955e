// Package snooze removes tabs and windows from the live environment until a
// scheduled wake time. Tab state machine: live -> snoozed -> (woken |
// deleted). A window snooze is layered on tab snoozes: every tab in the
// window carries the same window-snooze identifier so the group is restored
// together.
package snooze

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/windows"
)

type Service struct {
	store   store.Store
	browser browser.Browser
	windows *windows.Service
	alarms  Alarms
	log     zerolog.Logger

	now func() time.Time

	// pending mirrors the durable snoozed-tab set (snooze id -> wake time)
	// so the next alarm can be computed without a store round trip. Every
	// durable put/delete goes through putPending/dropPending to keep the
	// two in sync.
	mu      sync.Mutex
	pending map[string]time.Time
}

func NewService(st store.Store, br browser.Browser, ws *windows.Service, alarms Alarms, log zerolog.Logger) *Service {
	return &Service{
		store:   st,
		browser: br,
		windows: ws,
		alarms:  alarms,
		log:     log,
		now:     time.Now,
		pending: make(map[string]time.Time),
	}
}

// Prime loads pending snoozes from the store and schedules the next wake.
// Call once at startup, before serving requests.
func (s *Service) Prime(ctx context.Context) error {
	records, err := s.store.Snoozes().ListTabs(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = make(map[string]time.Time, len(records))
	for _, r := range records {
		s.pending[r.SnoozeID] = r.WakeTime
	}
	s.mu.Unlock()
	s.scheduleNext()
	return nil
}

// Result reports a snooze operation. Per-tab failures land in Errors; the
// operation itself only fails on precondition or missing-window errors.
type Result struct {
	Success        bool     `json:"success"`
	SnoozeIDs      []string `json:"snoozeIds,omitempty"`
	WindowSnoozeID string   `json:"windowSnoozeId,omitempty"`
	TabCount       int      `json:"tabCount"`
	Errors         []string `json:"errors,omitempty"`
}

// SnoozeTabs snoozes individual live tabs until wake. The clock is read
// once; the same reading validates the wake time and stamps the snooze
// identifiers, so two calls in quick succession cannot diverge.
func (s *Service) SnoozeTabs(ctx context.Context, tabIDs []int, wake time.Time, reason string) (*Result, error) {
	ts := s.now()
	if len(tabIDs) == 0 {
		return nil, fmt.Errorf("%w: no tabs to snooze", model.ErrValidation)
	}
	if !wake.After(ts) {
		return nil, fmt.Errorf("%w: wake time is in the past", model.ErrValidation)
	}

	res := &Result{Success: true}
	for _, tabID := range tabIDs {
		live, err := s.browser.Tab(ctx, tabID)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("tab %d: %v", tabID, err))
			continue
		}
		rec := &model.SnoozedTab{
			SnoozeID:     fmt.Sprintf("snooze-%d-%d", ts.UnixMilli(), tabID),
			URL:          live.URL,
			Title:        live.Title,
			FavIconURL:   live.FavIconURL,
			WakeTime:     wake,
			SnoozeReason: reason,
		}
		if _, err := s.store.Snoozes().PutTab(ctx, rec); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("tab %d: %v", tabID, err))
			continue
		}
		s.putPending(rec.SnoozeID, wake)
		if err := s.browser.RemoveTab(ctx, tabID); err != nil && !errors.Is(err, browser.ErrNotFound) {
			res.Errors = append(res.Errors, fmt.Sprintf("remove tab %d: %v", tabID, err))
		}
		res.SnoozeIDs = append(res.SnoozeIDs, rec.SnoozeID)
		res.TabCount++
	}
	s.scheduleNext()

	s.log.Info().Int("tabs", res.TabCount).Time("wake", wake).Msg("tabs snoozed")
	return res, nil
}

// SnoozeWindow snoozes a whole window. Window metadata is captured before
// any tab is removed: removing the last tab auto-closes the window, at
// which point its geometry is unrecoverable. The final close tolerates the
// window already being gone for the same reason.
func (s *Service) SnoozeWindow(ctx context.Context, windowID int, wake time.Time, reason string) (*Result, error) {
	ts := s.now()
	if !wake.After(ts) {
		return nil, fmt.Errorf("%w: wake time is in the past", model.ErrValidation)
	}
	tabs, err := s.browser.Tabs(ctx, windowID)
	if err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return nil, fmt.Errorf("window %d: %w", windowID, model.ErrNotFound)
		}
		return nil, err
	}

	windowSnoozeID := fmt.Sprintf("window-snooze-%d", ts.UnixMilli())
	if err := s.windows.CaptureMetadata(ctx, windowID, windowSnoozeID, wake); err != nil {
		return nil, err
	}

	res := &Result{Success: true, WindowSnoozeID: windowSnoozeID}
	for _, t := range tabs {
		wsid := windowSnoozeID
		rec := &model.SnoozedTab{
			SnoozeID:       fmt.Sprintf("%s-tab-%d", windowSnoozeID, t.ID),
			URL:            t.URL,
			Title:          t.Title,
			FavIconURL:     t.FavIconURL,
			WakeTime:       wake,
			SnoozeReason:   reason,
			WindowSnoozeID: &wsid,
		}
		if _, err := s.store.Snoozes().PutTab(ctx, rec); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("tab %d: %v", t.ID, err))
			continue
		}
		s.putPending(rec.SnoozeID, wake)
		if err := s.browser.RemoveTab(ctx, t.ID); err != nil && !errors.Is(err, browser.ErrNotFound) {
			res.Errors = append(res.Errors, fmt.Sprintf("remove tab %d: %v", t.ID, err))
		}
		res.TabCount++
	}

	// Removing every tab normally auto-closes the window already.
	if err := s.browser.CloseWindow(ctx, windowID); err != nil && !errors.Is(err, browser.ErrNotFound) {
		res.Errors = append(res.Errors, fmt.Sprintf("close window %d: %v", windowID, err))
	}
	s.scheduleNext()

	s.log.Info().
		Str("windowSnoozeId", windowSnoozeID).
		Int("tabs", res.TabCount).
		Time("wake", wake).
		Msg("window snoozed")
	return res, nil
}

// Operation is one entry in a mixed snooze batch.
type Operation struct {
	Scope    string    `json:"scope"` // "window" or "tabs"
	WindowID int       `json:"windowId,omitempty"`
	TabIDs   []int     `json:"tabIds,omitempty"`
	Wake     time.Time `json:"wake"`
	Reason   string    `json:"reason,omitempty"`
}

const (
	ScopeWindow = "window"
	ScopeTabs   = "tabs"
)

// BatchResult aggregates a mixed batch. Individual operation failures do
// not abort the batch.
type BatchResult struct {
	Success   bool     `json:"success"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	TabCount  int      `json:"tabCount"`
	Errors    []string `json:"errors,omitempty"`
}

// ExecuteOperations runs a mixed batch. A past wake time anywhere rejects
// the whole batch before any side effect. Window operations run before tab
// operations: a window snooze implicitly consumes tabs a later tab-scope
// operation might also name, and the ordering removes that ambiguity.
func (s *Service) ExecuteOperations(ctx context.Context, ops []Operation) (*BatchResult, error) {
	ts := s.now()
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: empty operation batch", model.ErrValidation)
	}
	for i, op := range ops {
		if op.Scope != ScopeWindow && op.Scope != ScopeTabs {
			return nil, fmt.Errorf("%w: operation %d: unknown scope %q", model.ErrValidation, i, op.Scope)
		}
		if !op.Wake.After(ts) {
			return nil, fmt.Errorf("%w: operation %d: wake time is in the past", model.ErrValidation, i)
		}
	}

	ordered := make([]Operation, len(ops))
	copy(ordered, ops)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Scope == ScopeWindow && ordered[j].Scope != ScopeWindow
	})

	out := &BatchResult{Success: true}
	for _, op := range ordered {
		var (
			res *Result
			err error
		)
		switch op.Scope {
		case ScopeWindow:
			res, err = s.SnoozeWindow(ctx, op.WindowID, op.Wake, op.Reason)
		case ScopeTabs:
			res, err = s.SnoozeTabs(ctx, op.TabIDs, op.Wake, op.Reason)
		}
		if err != nil {
			out.Failed++
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		out.Succeeded++
		out.TabCount += res.TabCount
		out.Errors = append(out.Errors, res.Errors...)
	}
	return out, nil
}

func (s *Service) putPending(snoozeID string, wake time.Time) {
	s.mu.Lock()
	s.pending[snoozeID] = wake
	s.mu.Unlock()
}

func (s *Service) dropPending(snoozeID string) {
	s.mu.Lock()
	delete(s.pending, snoozeID)
	s.mu.Unlock()
}

// scheduleNext points the alarm at the earliest pending wake, or clears it
// when nothing is pending.
func (s *Service) scheduleNext() {
	if s.alarms == nil {
		return
	}
	s.mu.Lock()
	var next time.Time
	for _, wake := range s.pending {
		if next.IsZero() || wake.Before(next) {
			next = wake
		}
	}
	s.mu.Unlock()
	if next.IsZero() {
		s.alarms.Clear()
		return
	}
	s.alarms.Schedule(next)
}
