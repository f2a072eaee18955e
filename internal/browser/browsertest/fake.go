// Package browsertest provides an in-memory Browser implementation for
// tests. It mimics the host's observable behavior closely enough to exercise
// the reconciliation engine: windows auto-close when their last tab is
// removed, ids are never reused, and state can be mutated out-of-band to
// simulate user interference mid-operation.
package browsertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tabvault/tabvault/server/internal/browser"
)

type Fake struct {
	mu          sync.Mutex
	nextWindow  int
	nextTab     int
	nextGroup   int
	windows     map[int]*browser.Window
	tabs        map[int]*browser.Tab
	groups      map[int]*browser.TabGroup

	// GroupsErr, when set, makes Groups fail (capture must downgrade to
	// "continue without groups").
	GroupsErr error
	// RemoveTabErr injects per-tab removal failures keyed by tab id.
	RemoveTabErr map[int]error
	// CreateTabErr injects creation failures keyed by URL.
	CreateTabErr map[string]error
}

func New() *Fake {
	return &Fake{
		nextWindow:   1,
		nextTab:      1,
		nextGroup:    1,
		windows:      make(map[int]*browser.Window),
		tabs:         make(map[int]*browser.Tab),
		groups:       make(map[int]*browser.TabGroup),
		RemoveTabErr: make(map[int]error),
		CreateTabErr: make(map[string]error),
	}
}

var _ browser.Browser = (*Fake)(nil)

// OpenWindow seeds an empty window without the default tab a real
// CreateWindow would add, so tests control the exact tab set.
func (f *Fake) OpenWindow() *browser.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &browser.Window{ID: f.nextWindow, Width: 1280, Height: 800, State: "normal", Type: "normal"}
	f.nextWindow++
	f.windows[w.ID] = w
	return w
}

// OpenTab seeds a tab at the end of a window.
func (f *Fake) OpenTab(windowID int, url string) *browser.Tab {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &browser.Tab{
		ID:       f.nextTab,
		WindowID: windowID,
		Index:    f.countTabs(windowID),
		URL:      url,
		GroupID:  browser.GroupNone,
	}
	f.nextTab++
	f.tabs[t.ID] = t
	return t
}

func (f *Fake) Windows(ctx context.Context) ([]browser.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]browser.Window, 0, len(f.windows))
	for _, w := range f.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) Window(ctx context.Context, windowID int) (*browser.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[windowID]
	if !ok {
		return nil, browser.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *Fake) CreateWindow(ctx context.Context, req browser.CreateWindowRequest) (*browser.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &browser.Window{
		ID:        f.nextWindow,
		State:     req.State,
		Type:      req.Type,
		Focused:   req.Focused,
		Incognito: req.Incognito,
	}
	if w.State == "" {
		w.State = "normal"
	}
	if w.Type == "" {
		w.Type = "normal"
	}
	if req.Left != nil {
		w.Left = *req.Left
	}
	if req.Top != nil {
		w.Top = *req.Top
	}
	if req.Width != nil {
		w.Width = *req.Width
	} else {
		w.Width = 1280
	}
	if req.Height != nil {
		w.Height = *req.Height
	} else {
		w.Height = 800
	}
	f.nextWindow++
	f.windows[w.ID] = w

	// A real host never opens a window with zero tabs.
	t := &browser.Tab{ID: f.nextTab, WindowID: w.ID, URL: "about:blank", Active: true, GroupID: browser.GroupNone}
	f.nextTab++
	f.tabs[t.ID] = t

	cp := *w
	return &cp, nil
}

func (f *Fake) CloseWindow(ctx context.Context, windowID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[windowID]; !ok {
		return browser.ErrNotFound
	}
	f.closeWindowLocked(windowID)
	return nil
}

func (f *Fake) Tabs(ctx context.Context, windowID int) ([]browser.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[windowID]; !ok {
		return nil, browser.ErrNotFound
	}
	return f.windowTabsLocked(windowID), nil
}

func (f *Fake) AllTabs(ctx context.Context) ([]browser.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []browser.Tab
	for _, t := range f.tabs {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WindowID != out[j].WindowID {
			return out[i].WindowID < out[j].WindowID
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

func (f *Fake) Tab(ctx context.Context, tabID int) (*browser.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tabs[tabID]
	if !ok {
		return nil, browser.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *Fake) CreateTab(ctx context.Context, req browser.CreateTabRequest) (*browser.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.CreateTabErr[req.URL]; ok {
		return nil, err
	}
	if _, ok := f.windows[req.WindowID]; !ok {
		return nil, browser.ErrNotFound
	}
	t := &browser.Tab{
		ID:       f.nextTab,
		WindowID: req.WindowID,
		Index:    f.countTabs(req.WindowID),
		URL:      req.URL,
		Pinned:   req.Pinned,
		Active:   req.Active,
		GroupID:  browser.GroupNone,
	}
	f.nextTab++
	f.tabs[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *Fake) RemoveTab(ctx context.Context, tabID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.RemoveTabErr[tabID]; ok {
		return err
	}
	t, ok := f.tabs[tabID]
	if !ok {
		return browser.ErrNotFound
	}
	windowID := t.WindowID
	delete(f.tabs, tabID)
	f.reindexLocked(windowID)
	if f.countTabs(windowID) == 0 {
		// Hosts auto-close a window whose last tab is removed.
		f.closeWindowLocked(windowID)
	}
	return nil
}

func (f *Fake) Groups(ctx context.Context, windowID int) ([]browser.TabGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GroupsErr != nil {
		return nil, f.GroupsErr
	}
	var out []browser.TabGroup
	for _, g := range f.groups {
		if g.WindowID == windowID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) GroupTabs(ctx context.Context, windowID int, tabIDs []int, title, color string, collapsed bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[windowID]; !ok {
		return 0, browser.ErrNotFound
	}
	g := &browser.TabGroup{ID: f.nextGroup, WindowID: windowID, Title: title, Color: color, Collapsed: collapsed}
	f.nextGroup++
	f.groups[g.ID] = g
	for _, id := range tabIDs {
		if t, ok := f.tabs[id]; ok {
			t.GroupID = g.ID
		}
	}
	return g.ID, nil
}

// SetTimes stamps a seeded tab's opened and last-accessed times.
func (f *Fake) SetTimes(tabID int, opened, accessed *time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tabs[tabID]; ok {
		t.OpenedAt = opened
		t.LastAccessed = accessed
	}
}

// SetPinned marks a seeded tab pinned.
func (f *Fake) SetPinned(tabID int, pinned bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tabs[tabID]; ok {
		t.Pinned = pinned
	}
}

func (f *Fake) countTabs(windowID int) int {
	n := 0
	for _, t := range f.tabs {
		if t.WindowID == windowID {
			n++
		}
	}
	return n
}

func (f *Fake) windowTabsLocked(windowID int) []browser.Tab {
	var out []browser.Tab
	for _, t := range f.tabs {
		if t.WindowID == windowID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (f *Fake) reindexLocked(windowID int) {
	var ids []int
	for id, t := range f.tabs {
		if t.WindowID == windowID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return f.tabs[ids[i]].Index < f.tabs[ids[j]].Index })
	for i, id := range ids {
		f.tabs[id].Index = i
	}
}

func (f *Fake) closeWindowLocked(windowID int) {
	delete(f.windows, windowID)
	for id, t := range f.tabs {
		if t.WindowID == windowID {
			delete(f.tabs, id)
		}
	}
	for id, g := range f.groups {
		if g.WindowID == windowID {
			delete(f.groups, id)
		}
	}
}
