package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/server/internal/browser"
)

func newBridge(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestWindows(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/windows", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]browser.Window{{ID: 1, State: "normal"}})
	})
	ws, err := c.Windows(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 1)
	require.Equal(t, 1, ws[0].ID)
}

func TestWindow_NotFound(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Window(context.Background(), 42)
	require.ErrorIs(t, err, browser.ErrNotFound)
}

func TestCreateTab(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tabs", r.URL.Path)
		var req browser.CreateTabRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(browser.Tab{ID: 7, WindowID: req.WindowID, URL: req.URL})
	})
	tab, err := c.CreateTab(context.Background(), browser.CreateTabRequest{WindowID: 3, URL: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, 7, tab.ID)
	require.Equal(t, 3, tab.WindowID)
}

func TestGroupTabs(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/windows/3/groups", r.URL.Path)
		var req groupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []int{1, 2}, req.TabIDs)
		_ = json.NewEncoder(w).Encode(groupResponse{GroupID: 11})
	})
	id, err := c.GroupTabs(context.Background(), 3, []int{1, 2}, "Research", "blue", false)
	require.NoError(t, err)
	require.Equal(t, 11, id)
}

func TestRemoveTab_BridgeError(t *testing.T) {
	c := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bridge on fire", http.StatusInternalServerError)
	})
	err := c.RemoveTab(context.Background(), 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, browser.ErrNotFound)
}
