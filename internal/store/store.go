package store

import (
	"context"
	"time"

	"github.com/tabvault/tabvault/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
//
// Cascading deletes are composed at the service layer inside WithTx; the
// store itself only offers per-scope deletes.
type Store interface {
	Collections() Collections
	Folders() Folders
	Tabs() Tabs
	Tasks() Tasks
	Snoozes() Snoozes

	// WithTx runs fn against a transactional view of the store. All writes
	// made through the view commit together or not at all. Calling WithTx on
	// a view that is already transactional reuses the open transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type Collections interface {
	Create(ctx context.Context, c *model.Collection) (*model.Collection, error)
	Get(ctx context.Context, collectionID string) (*model.Collection, error)
	Update(ctx context.Context, c *model.Collection) (*model.Collection, error)
	// List returns every collection ordered by last access, most recent first.
	List(ctx context.Context) ([]*model.Collection, error)
	// ListActive returns collections with the active flag set. Callers that
	// care about the active⇔bound invariant must still re-check WindowID;
	// legacy rows can carry a dirty flag.
	ListActive(ctx context.Context) ([]*model.Collection, error)
	ListByTag(ctx context.Context, tag string) ([]*model.Collection, error)
	Delete(ctx context.Context, collectionID string) error
}

type Folders interface {
	Create(ctx context.Context, f *model.Folder) (*model.Folder, error)
	Get(ctx context.Context, folderID string) (*model.Folder, error)
	Update(ctx context.Context, f *model.Folder) (*model.Folder, error)
	ListByCollection(ctx context.Context, collectionID string) ([]*model.Folder, error)
	Delete(ctx context.Context, folderID string) error
	DeleteByCollection(ctx context.Context, collectionID string) error
}

type Tabs interface {
	Create(ctx context.Context, t *model.Tab) (*model.Tab, error)
	Get(ctx context.Context, tabRecordID string) (*model.Tab, error)
	Update(ctx context.Context, t *model.Tab) (*model.Tab, error)
	// SetRuntimeID writes the live environment's identifier back onto the
	// durable record; nil clears it when the tab is no longer open.
	SetRuntimeID(ctx context.Context, tabRecordID string, runtimeID *int) error
	ListByFolder(ctx context.Context, folderID string) ([]*model.Tab, error)
	// ListByCollection uses the denormalized collection column so ungrouped
	// tabs are reachable without folder traversal. Ordered by position.
	ListByCollection(ctx context.Context, collectionID string) ([]*model.Tab, error)
	Delete(ctx context.Context, tabRecordID string) error
	DeleteByCollection(ctx context.Context, collectionID string) error
}

type Tasks interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	Get(ctx context.Context, taskID string) (*model.Task, error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	List(ctx context.Context) ([]*model.Task, error)
	ListByCollection(ctx context.Context, collectionID string) ([]*model.Task, error)
	ListByStatus(ctx context.Context, status string) ([]*model.Task, error)
	ListByPriority(ctx context.Context, priority string) ([]*model.Task, error)
	ListByTag(ctx context.Context, tag string) ([]*model.Task, error)
	ListDueBefore(ctx context.Context, t time.Time) ([]*model.Task, error)
	Delete(ctx context.Context, taskID string) error
	DeleteByCollection(ctx context.Context, collectionID string) error
}

// Snoozes is the simple key-value persistence layer behind the snooze
// orchestration: a flat list of pending snoozed-tab records plus a
// window-metadata map keyed by snooze identifier.
type Snoozes interface {
	PutTab(ctx context.Context, s *model.SnoozedTab) (*model.SnoozedTab, error)
	GetTab(ctx context.Context, snoozeID string) (*model.SnoozedTab, error)
	ListTabs(ctx context.Context) ([]*model.SnoozedTab, error)
	ListTabsDue(ctx context.Context, by time.Time) ([]*model.SnoozedTab, error)
	ListTabsByWindowSnooze(ctx context.Context, windowSnoozeID string) ([]*model.SnoozedTab, error)
	DeleteTab(ctx context.Context, snoozeID string) error

	PutWindowMetadata(ctx context.Context, m *model.WindowMetadata) error
	// GetWindowMetadata returns (nil, nil) when no entry exists; losing only
	// window chrome is an acceptable degradation for callers.
	GetWindowMetadata(ctx context.Context, snoozeID string) (*model.WindowMetadata, error)
	DeleteWindowMetadata(ctx context.Context, snoozeID string) error
}
