package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tabvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.New(db)
}

func TestDeleteCollection_Cascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cols := NewCollectionService(st)
	folders := NewFolderService(st)
	tabs := NewTabService(st)
	tasks := NewTaskService(st)

	c, err := cols.CreateCollection(ctx, &model.Collection{Name: "research"})
	require.NoError(t, err)
	f, err := folders.CreateFolder(ctx, &model.Folder{CollectionID: c.CollectionID, Name: "papers"})
	require.NoError(t, err)
	_, err = tabs.CreateTab(ctx, &model.Tab{CollectionID: c.CollectionID, FolderID: &f.FolderID, URL: "https://example.com/1"})
	require.NoError(t, err)
	_, err = tabs.CreateTab(ctx, &model.Tab{CollectionID: c.CollectionID, URL: "https://example.com/2"})
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, &model.Task{CollectionID: &c.CollectionID, Summary: "read all of these"})
	require.NoError(t, err)

	require.NoError(t, cols.DeleteCollection(ctx, c.CollectionID))

	_, err = cols.GetCollection(ctx, c.CollectionID)
	require.ErrorIs(t, err, model.ErrNotFound)
	fs, err := folders.ListFolders(ctx, c.CollectionID)
	require.NoError(t, err)
	require.Empty(t, fs)
	ts, err := tabs.ListTabsByCollection(ctx, c.CollectionID)
	require.NoError(t, err)
	require.Empty(t, ts)
	tk, err := tasks.ListTasksByCollection(ctx, c.CollectionID)
	require.NoError(t, err)
	require.Empty(t, tk)
}

func TestCreateCollection_RequiresName(t *testing.T) {
	cols := NewCollectionService(newTestStore(t))
	_, err := cols.CreateCollection(context.Background(), &model.Collection{})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestCreateTab_ValidatesParents(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cols := NewCollectionService(st)
	tabs := NewTabService(st)

	_, err := tabs.CreateTab(ctx, &model.Tab{CollectionID: "missing", URL: "https://example.com"})
	require.ErrorIs(t, err, model.ErrNotFound)

	c, err := cols.CreateCollection(ctx, &model.Collection{Name: "c"})
	require.NoError(t, err)
	ghost := "no-such-folder"
	_, err = tabs.CreateTab(ctx, &model.Tab{CollectionID: c.CollectionID, FolderID: &ghost, URL: "https://example.com"})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCounts_FollowFolderAndTabChanges(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cols := NewCollectionService(st)
	folders := NewFolderService(st)
	tabs := NewTabService(st)

	c, err := cols.CreateCollection(ctx, &model.Collection{Name: "counted"})
	require.NoError(t, err)
	f, err := folders.CreateFolder(ctx, &model.Folder{CollectionID: c.CollectionID, Name: "f"})
	require.NoError(t, err)
	tb, err := tabs.CreateTab(ctx, &model.Tab{CollectionID: c.CollectionID, FolderID: &f.FolderID, URL: "https://example.com"})
	require.NoError(t, err)

	got, err := cols.GetCollection(ctx, c.CollectionID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Metadata.FolderCount)
	require.Equal(t, 1, got.Metadata.TabCount)

	require.NoError(t, tabs.DeleteTab(ctx, tb.TabRecordID))
	got, err = cols.GetCollection(ctx, c.CollectionID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Metadata.TabCount)
}

func TestDeleteFolder_TabsBecomeUngrouped(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cols := NewCollectionService(st)
	folders := NewFolderService(st)
	tabs := NewTabService(st)

	c, err := cols.CreateCollection(ctx, &model.Collection{Name: "c"})
	require.NoError(t, err)
	f, err := folders.CreateFolder(ctx, &model.Folder{CollectionID: c.CollectionID, Name: "doomed"})
	require.NoError(t, err)
	tb, err := tabs.CreateTab(ctx, &model.Tab{CollectionID: c.CollectionID, FolderID: &f.FolderID, URL: "https://example.com"})
	require.NoError(t, err)

	require.NoError(t, folders.DeleteFolder(ctx, f.FolderID))

	got, err := tabs.GetTab(ctx, tb.TabRecordID)
	require.NoError(t, err)
	require.Nil(t, got.FolderID, "the folder's tabs survive as ungrouped")
}

func TestMoveTab_RejectsCrossCollectionFolder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cols := NewCollectionService(st)
	folders := NewFolderService(st)
	tabs := NewTabService(st)

	c1, err := cols.CreateCollection(ctx, &model.Collection{Name: "one"})
	require.NoError(t, err)
	c2, err := cols.CreateCollection(ctx, &model.Collection{Name: "two"})
	require.NoError(t, err)
	foreign, err := folders.CreateFolder(ctx, &model.Folder{CollectionID: c2.CollectionID, Name: "theirs"})
	require.NoError(t, err)
	tb, err := tabs.CreateTab(ctx, &model.Tab{CollectionID: c1.CollectionID, URL: "https://example.com"})
	require.NoError(t, err)

	_, err = tabs.MoveTab(ctx, tb.TabRecordID, &foreign.FolderID, 0)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateTask_StampsCompletedAt(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	tasks := NewTaskService(st)

	tk, err := tasks.CreateTask(ctx, &model.Task{Summary: "finish this"})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusOpen, tk.Status)
	require.Equal(t, model.TaskPriorityMedium, tk.Priority)

	tk.Status = model.TaskStatusDone
	done, err := tasks.UpdateTask(ctx, tk)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	require.WithinDuration(t, time.Now().UTC(), *done.CompletedAt, time.Minute)

	done.Status = model.TaskStatusOpen
	reopened, err := tasks.UpdateTask(ctx, done)
	require.NoError(t, err)
	require.Nil(t, reopened.CompletedAt)
}

func TestTaskComments(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	tasks := NewTaskService(st)

	tk, err := tasks.CreateTask(ctx, &model.Task{Summary: "discuss"})
	require.NoError(t, err)

	got, err := tasks.AddComment(ctx, tk.TaskID, "first thoughts")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	require.Equal(t, "first thoughts", got.Comments[0].Text)

	_, err = tasks.AddComment(ctx, tk.TaskID, "")
	require.ErrorIs(t, err, model.ErrValidation)
}
