package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/server/internal/browser/browsertest"
	"github.com/tabvault/tabvault/server/internal/dedup"
	"github.com/tabvault/tabvault/server/internal/engine"
	"github.com/tabvault/tabvault/server/internal/events"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/snooze"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/store/sqlite"
	"github.com/tabvault/tabvault/server/internal/windows"
)

func newTestServer(t *testing.T) (*httptest.Server, *browsertest.Fake, store.Store) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tabvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := sqlite.New(db)
	fake := browsertest.New()
	ws := windows.NewService(st, fake, events.NewBus(), zerolog.Nop())
	router := NewRouter(Deps{
		Store:   st,
		Windows: ws,
		Engine:  engine.NewService(st, fake, ws, zerolog.Nop(), engine.Options{BatchSize: 5, BatchDelay: time.Millisecond}),
		Snooze:  snooze.NewService(st, fake, ws, nil, zerolog.Nop()),
		Dedup:   dedup.NewService(fake, zerolog.Nop()),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, fake, st
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCollectionCRUD(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var created model.Collection
	code := doJSON(t, "POST", srv.URL+"/api/collections", map[string]interface{}{
		"name": "research",
		"tags": []string{"work"},
	}, &created)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, created.CollectionID)

	var got model.Collection
	code = doJSON(t, "GET", srv.URL+"/api/collections/"+created.CollectionID, nil, &got)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "research", got.Name)

	var listing struct {
		Collections []model.Collection `json:"collections"`
		Count       int                `json:"count"`
	}
	code = doJSON(t, "GET", srv.URL+"/api/collections?tag=work", nil, &listing)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, listing.Count)

	got.Name = "renamed"
	code = doJSON(t, "PUT", srv.URL+"/api/collections/"+created.CollectionID, got, nil)
	require.Equal(t, http.StatusOK, code)

	code = doJSON(t, "DELETE", srv.URL+"/api/collections/"+created.CollectionID, nil, nil)
	require.Equal(t, http.StatusNoContent, code)

	code = doJSON(t, "GET", srv.URL+"/api/collections/"+created.CollectionID, nil, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestCollectionValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	code := doJSON(t, "POST", srv.URL+"/api/collections", map[string]interface{}{"name": ""}, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestCaptureRestoreEndpoints(t *testing.T) {
	srv, fake, _ := newTestServer(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/b")

	var snap engine.CaptureResult
	code := doJSON(t, "POST", fmt.Sprintf("%s/api/windows/%d/capture", srv.URL, w.ID), map[string]interface{}{
		"name": "captured",
	}, &snap)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, snap.Success)
	require.Equal(t, 2, snap.TabCount)

	var bound model.Collection
	code = doJSON(t, "GET", fmt.Sprintf("%s/api/windows/%d/collection", srv.URL, w.ID), nil, &bound)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, snap.CollectionID, bound.CollectionID)

	require.NoError(t, fake.CloseWindow(ctx, w.ID))

	var restored engine.RestoreResult
	code = doJSON(t, "POST", srv.URL+"/api/collections/"+snap.CollectionID+"/restore", nil, &restored)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, restored.Created)

	live, err := fake.Tabs(ctx, restored.WindowID)
	require.NoError(t, err)
	require.Len(t, live, 2)
}

func TestCaptureMissingWindow(t *testing.T) {
	srv, _, _ := newTestServer(t)
	code := doJSON(t, "POST", srv.URL+"/api/windows/999/capture", map[string]interface{}{"name": "x"}, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestSnoozeEndpoints(t *testing.T) {
	srv, fake, _ := newTestServer(t)

	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/b")

	var res snooze.Result
	code := doJSON(t, "POST", srv.URL+"/api/snooze/window", map[string]interface{}{
		"windowId": w.ID,
		"wake":     time.Now().Add(time.Hour).Format(time.RFC3339),
		"reason":   "later",
	}, &res)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, res.TabCount)
	require.NotEmpty(t, res.WindowSnoozeID)

	var woken snooze.WakeResult
	code = doJSON(t, "POST", srv.URL+"/api/snooze/"+res.WindowSnoozeID+"/wake", nil, &woken)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, woken.TabCount)

	// A consumed snooze id cannot wake twice.
	code = doJSON(t, "POST", srv.URL+"/api/snooze/"+res.WindowSnoozeID+"/wake", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestSnoozePastWakeRejected(t *testing.T) {
	srv, fake, _ := newTestServer(t)
	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com")

	code := doJSON(t, "POST", srv.URL+"/api/snooze/window", map[string]interface{}{
		"windowId": w.ID,
		"wake":     time.Now().Add(-time.Hour).Format(time.RFC3339),
	}, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestDedupeEndpoint(t *testing.T) {
	srv, fake, _ := newTestServer(t)
	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/a")

	var res dedup.Result
	code := doJSON(t, "POST", srv.URL+"/api/dedupe", map[string]interface{}{
		"scope":    "global",
		"strategy": "oldest",
		"dryRun":   true,
	}, &res)
	require.Equal(t, http.StatusOK, code)
	require.True(t, res.DryRun)
	require.Equal(t, 1, res.Removed)

	live, err := fake.Tabs(context.Background(), w.ID)
	require.NoError(t, err)
	require.Len(t, live, 2)

	code = doJSON(t, "POST", srv.URL+"/api/dedupe", map[string]interface{}{
		"scope":    "galaxy",
		"strategy": "oldest",
	}, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/health/db")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestFolderAndTabEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var col model.Collection
	code := doJSON(t, "POST", srv.URL+"/api/collections", map[string]interface{}{"name": "c"}, &col)
	require.Equal(t, http.StatusCreated, code)

	var folder model.Folder
	code = doJSON(t, "POST", srv.URL+"/api/collections/"+col.CollectionID+"/folders", map[string]interface{}{
		"name":  "papers",
		"color": "blue",
	}, &folder)
	require.Equal(t, http.StatusCreated, code)

	var tab model.Tab
	code = doJSON(t, "POST", srv.URL+"/api/collections/"+col.CollectionID+"/tabs", map[string]interface{}{
		"url":      "https://example.com",
		"folderId": folder.FolderID,
	}, &tab)
	require.Equal(t, http.StatusCreated, code)

	var moved model.Tab
	code = doJSON(t, "POST", srv.URL+"/api/tabs/"+tab.TabRecordID+"/move", map[string]interface{}{
		"folderId": nil,
		"position": 3,
	}, &moved)
	require.Equal(t, http.StatusOK, code)
	require.Nil(t, moved.FolderID)
	require.Equal(t, 3, moved.Position)

	var got model.Collection
	code = doJSON(t, "GET", srv.URL+"/api/collections/"+col.CollectionID, nil, &got)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, got.Metadata.TabCount)
	require.Equal(t, 1, got.Metadata.FolderCount)
}

func TestTaskEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var task model.Task
	code := doJSON(t, "POST", srv.URL+"/api/tasks", map[string]interface{}{
		"summary":  "triage tabs",
		"priority": "high",
	}, &task)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, model.TaskStatusOpen, task.Status)

	var commented model.Task
	code = doJSON(t, "POST", srv.URL+"/api/tasks/"+task.TaskID+"/comments", map[string]interface{}{
		"text": "start with the oldest window",
	}, &commented)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, commented.Comments, 1)

	var listing struct {
		Tasks []model.Task `json:"tasks"`
		Count int          `json:"count"`
	}
	code = doJSON(t, "GET", srv.URL+"/api/tasks?priority=high", nil, &listing)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, listing.Count)

	code = doJSON(t, "DELETE", srv.URL+"/api/tasks/"+task.TaskID, nil, nil)
	require.Equal(t, http.StatusNoContent, code)
}
