// Package browser defines the port to the live browser environment. The
// reconciliation engine only ever talks to this interface; the concrete
// implementation is an extension bridge in production and an in-memory fake
// in tests.
package browser

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound marks a window, tab, or group that no longer exists in the
// live environment. Callers that expect the target to race away (snooze
// close, default-tab cleanup) check for it and continue.
var ErrNotFound = errors.New("browser: not found")

// GroupNone is the group id of a tab that belongs to no tab group.
const GroupNone = -1

// Window is a live browser window.
type Window struct {
	ID        int    `json:"id"`
	Left      int    `json:"left"`
	Top       int    `json:"top"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	State     string `json:"state"`
	Type      string `json:"type"`
	Focused   bool   `json:"focused"`
	Incognito bool   `json:"incognito"`
}

// Tab is a live browser tab. OpenedAt and LastAccessed are optional; hosts
// that do not report them leave them nil and dedup keep-strategies fall back
// to id ordering.
type Tab struct {
	ID           int        `json:"id"`
	WindowID     int        `json:"windowId"`
	Index        int        `json:"index"`
	URL          string     `json:"url"`
	Title        string     `json:"title,omitempty"`
	FavIconURL   string     `json:"favIconUrl,omitempty"`
	Pinned       bool       `json:"pinned"`
	Active       bool       `json:"active"`
	GroupID      int        `json:"groupId"`
	OpenedAt     *time.Time `json:"openedAt,omitempty"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
}

// TabGroup is a live tab group.
type TabGroup struct {
	ID        int    `json:"id"`
	WindowID  int    `json:"windowId"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
}

// CreateWindowRequest creates a new window. Geometry fields are hints; a
// zero State or Type means the host default.
type CreateWindowRequest struct {
	Left      *int   `json:"left,omitempty"`
	Top       *int   `json:"top,omitempty"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
	State     string `json:"state,omitempty"`
	Type      string `json:"type,omitempty"`
	Focused   bool   `json:"focused"`
	Incognito bool   `json:"incognito"`
}

// CreateTabRequest creates a tab inside an existing window.
type CreateTabRequest struct {
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Pinned   bool   `json:"pinned"`
	Active   bool   `json:"active"`
}

// Browser is the live-environment port. Every method is a suspension point;
// results reflect a state that can change out-of-band immediately after.
type Browser interface {
	Windows(ctx context.Context) ([]Window, error)
	Window(ctx context.Context, windowID int) (*Window, error)
	CreateWindow(ctx context.Context, req CreateWindowRequest) (*Window, error)
	CloseWindow(ctx context.Context, windowID int) error

	Tabs(ctx context.Context, windowID int) ([]Tab, error)
	AllTabs(ctx context.Context) ([]Tab, error)
	Tab(ctx context.Context, tabID int) (*Tab, error)
	CreateTab(ctx context.Context, req CreateTabRequest) (*Tab, error)
	RemoveTab(ctx context.Context, tabID int) error

	Groups(ctx context.Context, windowID int) ([]TabGroup, error)
	// GroupTabs puts tabIDs into a new group and returns its id.
	GroupTabs(ctx context.Context, windowID int, tabIDs []int, title, color string, collapsed bool) (int, error)
}

// DefaultGroupColor is substituted for colors outside the accepted palette.
const DefaultGroupColor = "grey"

var groupColors = map[string]bool{
	"grey":   true,
	"blue":   true,
	"red":    true,
	"yellow": true,
	"green":  true,
	"pink":   true,
	"purple": true,
	"cyan":   true,
	"orange": true,
}

// NormalizeGroupColor maps any value outside the accepted palette to the
// default neutral color instead of failing.
func NormalizeGroupColor(color string) string {
	if groupColors[color] {
		return color
	}
	return DefaultGroupColor
}

var systemPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"edge://",
	"devtools://",
	"about:",
}

// IsSystemURL reports whether a URL points at browser or extension
// internals that cannot be captured or restored. about:blank is excluded;
// it is the default empty tab and round-trips fine.
func IsSystemURL(url string) bool {
	if url == "about:blank" {
		return false
	}
	for _, p := range systemPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
