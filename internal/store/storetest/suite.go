package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Collections
	c, err := s.Collections().Create(ctx, &model.Collection{Name: "research", Tags: []string{"work", "ml"}})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	if c.CollectionID == "" {
		t.Fatalf("CreateCollection: empty id")
	}
	if got, err := s.Collections().Get(ctx, c.CollectionID); err != nil || got.Name != "research" {
		t.Fatalf("GetCollection: got=%v err=%v", got, err)
	}
	if _, err := s.Collections().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetCollection missing: want ErrNotFound, got %v", err)
	}
	if lst, err := s.Collections().ListByTag(ctx, "ml"); err != nil || len(lst) != 1 {
		t.Fatalf("ListByTag: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Collections().ListByTag(ctx, "absent"); err != nil || len(lst) != 0 {
		t.Fatalf("ListByTag absent: n=%d err=%v", len(lst), err)
	}

	// Activation round trip through Update
	win := 42
	c.IsActive = true
	c.WindowID = &win
	if _, err := s.Collections().Update(ctx, c); err != nil {
		t.Fatalf("UpdateCollection: %v", err)
	}
	if act, err := s.Collections().ListActive(ctx); err != nil || len(act) != 1 || act[0].WindowID == nil || *act[0].WindowID != 42 {
		t.Fatalf("ListActive: got=%v err=%v", act, err)
	}

	// Folders
	f, err := s.Folders().Create(ctx, &model.Folder{CollectionID: c.CollectionID, Name: "papers", Color: "blue", Position: 0})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	f2, err := s.Folders().Create(ctx, &model.Folder{CollectionID: c.CollectionID, Name: "Ungrouped", Position: 1})
	if err != nil {
		t.Fatalf("CreateFolder 2: %v", err)
	}
	if lst, err := s.Folders().ListByCollection(ctx, c.CollectionID); err != nil || len(lst) != 2 || lst[0].Name != "papers" {
		t.Fatalf("ListFolders: got=%v err=%v", lst, err)
	}

	// Tabs with dual identity
	rt := 7
	tab, err := s.Tabs().Create(ctx, &model.Tab{CollectionID: c.CollectionID, FolderID: &f.FolderID, URL: "https://example.com/a", Title: "A", Position: 0, RuntimeID: &rt})
	if err != nil {
		t.Fatalf("CreateTab: %v", err)
	}
	if _, err := s.Tabs().Create(ctx, &model.Tab{CollectionID: c.CollectionID, FolderID: &f2.FolderID, URL: "https://example.com/b", Position: 1}); err != nil {
		t.Fatalf("CreateTab 2: %v", err)
	}
	if err := s.Tabs().SetRuntimeID(ctx, tab.TabRecordID, nil); err != nil {
		t.Fatalf("SetRuntimeID clear: %v", err)
	}
	if got, err := s.Tabs().Get(ctx, tab.TabRecordID); err != nil || got.RuntimeID != nil {
		t.Fatalf("runtime id should be cleared: got=%v err=%v", got, err)
	}
	nine := 9
	if err := s.Tabs().SetRuntimeID(ctx, tab.TabRecordID, &nine); err != nil {
		t.Fatalf("SetRuntimeID assign: %v", err)
	}
	if got, _ := s.Tabs().Get(ctx, tab.TabRecordID); got.RuntimeID == nil || *got.RuntimeID != 9 {
		t.Fatalf("runtime id should be 9: got=%v", got)
	}
	if lst, err := s.Tabs().ListByFolder(ctx, f.FolderID); err != nil || len(lst) != 1 {
		t.Fatalf("ListTabsByFolder: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Tabs().ListByCollection(ctx, c.CollectionID); err != nil || len(lst) != 2 {
		t.Fatalf("ListTabsByCollection: n=%d err=%v", len(lst), err)
	}

	// Tasks
	due := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	task, err := s.Tasks().Create(ctx, &model.Task{
		CollectionID: &c.CollectionID,
		Summary:      "read paper",
		Status:       model.TaskStatusOpen,
		Priority:     model.TaskPriorityHigh,
		DueDate:      &due,
		Tags:         []string{"reading"},
		TabIDs:       []string{tab.TabRecordID},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if lst, err := s.Tasks().ListByStatus(ctx, model.TaskStatusOpen); err != nil || len(lst) != 1 {
		t.Fatalf("ListByStatus: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Tasks().ListByPriority(ctx, model.TaskPriorityHigh); err != nil || len(lst) != 1 {
		t.Fatalf("ListByPriority: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Tasks().ListByTag(ctx, "reading"); err != nil || len(lst) != 1 {
		t.Fatalf("Tasks ListByTag: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Tasks().ListDueBefore(ctx, due.Add(time.Minute)); err != nil || len(lst) != 1 {
		t.Fatalf("ListDueBefore: n=%d err=%v", len(lst), err)
	}
	if got, err := s.Tasks().Get(ctx, task.TaskID); err != nil || len(got.TabIDs) != 1 || got.TabIDs[0] != tab.TabRecordID {
		t.Fatalf("task tab reference should use durable id: got=%v err=%v", got, err)
	}

	// Snoozed tabs + window metadata
	wake := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	wsID := "window-" + uuid.New().String()
	st1, err := s.Snoozes().PutTab(ctx, &model.SnoozedTab{URL: "https://example.com/s1", WakeTime: wake, WindowSnoozeID: &wsID})
	if err != nil {
		t.Fatalf("PutTab: %v", err)
	}
	if _, err := s.Snoozes().PutTab(ctx, &model.SnoozedTab{URL: "https://example.com/s2", WakeTime: wake.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("PutTab 2: %v", err)
	}
	if lst, err := s.Snoozes().ListTabsDue(ctx, wake.Add(time.Minute)); err != nil || len(lst) != 1 {
		t.Fatalf("ListTabsDue: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Snoozes().ListTabsByWindowSnooze(ctx, wsID); err != nil || len(lst) != 1 {
		t.Fatalf("ListTabsByWindowSnooze: n=%d err=%v", len(lst), err)
	}
	if err := s.Snoozes().PutWindowMetadata(ctx, &model.WindowMetadata{SnoozeID: wsID, WindowID: 42, Width: 800, Height: 600, State: "normal", Type: "normal", Focused: true, SnoozeUntil: wake}); err != nil {
		t.Fatalf("PutWindowMetadata: %v", err)
	}
	if meta, err := s.Snoozes().GetWindowMetadata(ctx, wsID); err != nil || meta == nil || meta.Width != 800 {
		t.Fatalf("GetWindowMetadata: got=%v err=%v", meta, err)
	}
	if meta, err := s.Snoozes().GetWindowMetadata(ctx, "unknown"); err != nil || meta != nil {
		t.Fatalf("missing metadata should be (nil, nil): got=%v err=%v", meta, err)
	}
	if err := s.Snoozes().DeleteWindowMetadata(ctx, wsID); err != nil {
		t.Fatalf("DeleteWindowMetadata: %v", err)
	}
	if err := s.Snoozes().DeleteTab(ctx, st1.SnoozeID); err != nil {
		t.Fatalf("DeleteTab: %v", err)
	}
	if err := s.Snoozes().DeleteTab(ctx, st1.SnoozeID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second DeleteTab: want ErrNotFound, got %v", err)
	}

	// Transaction atomicity: writes roll back when fn errors.
	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Collections().Create(ctx, &model.Collection{Name: "doomed"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx should surface fn error, got %v", err)
	}
	if lst, _ := s.Collections().List(ctx); len(lst) != 1 {
		t.Fatalf("rolled-back collection should not be visible, n=%d", len(lst))
	}

	// Cross-entity delete composed in one transaction commits atomically.
	err = s.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Tabs().DeleteByCollection(ctx, c.CollectionID); err != nil {
			return err
		}
		if err := tx.Folders().DeleteByCollection(ctx, c.CollectionID); err != nil {
			return err
		}
		if err := tx.Tasks().DeleteByCollection(ctx, c.CollectionID); err != nil {
			return err
		}
		return tx.Collections().Delete(ctx, c.CollectionID)
	})
	if err != nil {
		t.Fatalf("cascade WithTx: %v", err)
	}
	if lst, _ := s.Folders().ListByCollection(ctx, c.CollectionID); len(lst) != 0 {
		t.Fatalf("folders should be gone, n=%d", len(lst))
	}
	if lst, _ := s.Tabs().ListByCollection(ctx, c.CollectionID); len(lst) != 0 {
		t.Fatalf("tabs should be gone, n=%d", len(lst))
	}
	if lst, _ := s.Tasks().ListByCollection(ctx, c.CollectionID); len(lst) != 0 {
		t.Fatalf("tasks should be gone, n=%d", len(lst))
	}
}
