package model

import "time"

// Collection is a named workspace of folders and tabs, optionally bound to a
// live browser window. IsActive is true exactly when WindowID is non-nil.
type Collection struct {
	CollectionID string             `json:"collectionId"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Icon         string             `json:"icon,omitempty"`
	Color        string             `json:"color,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	IsActive     bool               `json:"isActive"`
	WindowID     *int               `json:"windowId,omitempty"`
	Settings     CollectionSettings `json:"settings"`
	Metadata     CollectionMetadata `json:"metadata"`
}

// CollectionSettings carries per-collection behavior toggles.
type CollectionSettings struct {
	AutoCapture bool `json:"autoCapture,omitempty"`
	OpenPinned  bool `json:"openPinned,omitempty"`
}

// CollectionMetadata is derived bookkeeping recomputed after capture/restore.
type CollectionMetadata struct {
	CreatedAt    time.Time  `json:"createdAt"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	TabCount     int        `json:"tabCount"`
	FolderCount  int        `json:"folderCount"`
}

// Folder groups tabs inside a collection and corresponds to a tab group when
// the collection is live.
type Folder struct {
	FolderID     string `json:"folderId"`
	CollectionID string `json:"collectionId"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	Collapsed    bool   `json:"collapsed"`
	Position     int    `json:"position"`
}

// Tab is the durable record of a browser tab. The record carries dual
// identity: TabRecordID is the stable durable key (referenced by tasks),
// while RuntimeID is the live environment's identifier, nil whenever the tab
// is not currently open and reassigned each time it is materialized.
// A nil FolderID means "ungrouped within its collection".
type Tab struct {
	TabRecordID  string  `json:"id"`
	CollectionID string  `json:"collectionId"`
	FolderID     *string `json:"folderId,omitempty"`
	URL          string  `json:"url"`
	Title        string  `json:"title,omitempty"`
	FavIconURL   string  `json:"favicon,omitempty"`
	Note         string  `json:"note,omitempty"`
	Position     int     `json:"position"`
	IsPinned     bool    `json:"isPinned"`
	RuntimeID    *int    `json:"tabId,omitempty"`
}

// Task is a todo item optionally categorized under a collection. Tab
// references use durable tab ids so they survive tab closure.
type Task struct {
	TaskID       string        `json:"taskId"`
	CollectionID *string       `json:"collectionId,omitempty"`
	Summary      string        `json:"summary"`
	Notes        string        `json:"notes,omitempty"`
	Status       string        `json:"status"`
	Priority     string        `json:"priority"`
	DueDate      *time.Time    `json:"dueDate,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	TabIDs       []string      `json:"tabIds,omitempty"`
	Comments     []TaskComment `json:"comments,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// TaskComment is a timestamped note on a task.
type TaskComment struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task status and priority values accepted by the task service.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// SnoozedTab is a tab suspended until WakeTime. WindowSnoozeID groups tabs
// that were snoozed together as one window so they can be restored as one.
type SnoozedTab struct {
	SnoozeID       string    `json:"snoozeId"`
	URL            string    `json:"url"`
	Title          string    `json:"title,omitempty"`
	FavIconURL     string    `json:"favicon,omitempty"`
	WakeTime       time.Time `json:"wakeTime"`
	SnoozeReason   string    `json:"snoozeReason,omitempty"`
	WindowSnoozeID *string   `json:"windowSnoozeId,omitempty"`
}

// WindowMetadata captures a window's chrome immediately before it is closed
// for snoozing. It is consumed exactly once on restore, then deleted.
type WindowMetadata struct {
	SnoozeID    string    `json:"snoozeId"`
	WindowID    int       `json:"windowId"`
	Left        int       `json:"left"`
	Top         int       `json:"top"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	State       string    `json:"state"`
	Type        string    `json:"type"`
	Focused     bool      `json:"focused"`
	Incognito   bool      `json:"incognito"`
	SnoozeUntil time.Time `json:"snoozeUntil"`
}
