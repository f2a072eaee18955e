package snooze

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/server/internal/browser/browsertest"
	"github.com/tabvault/tabvault/server/internal/events"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/store/sqlite"
	"github.com/tabvault/tabvault/server/internal/windows"
)

func newTestService(t *testing.T) (*Service, store.Store, *browsertest.Fake) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tabvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := sqlite.New(db)
	fake := browsertest.New()
	ws := windows.NewService(st, fake, events.NewBus(), zerolog.Nop())
	svc := NewService(st, fake, ws, nil, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, st, fake
}

func TestSnoozeWindow_WakeSymmetry(t *testing.T) {
	svc, st, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/b")

	wake := svc.now().Add(time.Hour)
	res, err := svc.SnoozeWindow(ctx, w.ID, wake, "focus time")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.TabCount)
	require.Empty(t, res.Errors, "auto-closed window must not surface as an error")

	// The window is gone (auto-closed when its last tab was removed).
	_, err = fake.Window(ctx, w.ID)
	require.Error(t, err)

	meta, err := st.Snoozes().GetWindowMetadata(ctx, res.WindowSnoozeID)
	require.NoError(t, err)
	require.NotNil(t, meta, "metadata must be captured before tab removal")
	require.Equal(t, 1280, meta.Width)

	wr, err := svc.WakeWindowSnooze(ctx, res.WindowSnoozeID)
	require.NoError(t, err)
	require.Equal(t, 2, wr.TabCount)
	require.Empty(t, wr.Errors)

	live, err := fake.Tabs(ctx, wr.WindowID)
	require.NoError(t, err)
	require.Len(t, live, 2, "default tab should be removed after restore")

	meta, err = st.Snoozes().GetWindowMetadata(ctx, res.WindowSnoozeID)
	require.NoError(t, err)
	require.Nil(t, meta)
	remaining, err := st.Snoozes().ListTabsByWindowSnooze(ctx, res.WindowSnoozeID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestSnoozeWindow_PastWake(t *testing.T) {
	svc, st, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com")

	_, err := svc.SnoozeWindow(ctx, w.ID, svc.now().Add(-time.Minute), "")
	require.ErrorIs(t, err, model.ErrValidation)

	// No side effects: window intact, nothing persisted.
	_, err = fake.Window(ctx, w.ID)
	require.NoError(t, err)
	pending, err := st.Snoozes().ListTabs(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSnoozeWindow_MissingWindow(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SnoozeWindow(context.Background(), 404, svc.now().Add(time.Hour), "")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestWakeWindowSnooze_NoPendingTabs(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Snoozes().PutWindowMetadata(ctx, &model.WindowMetadata{
		SnoozeID: "window-snooze-1", State: "normal", Type: "normal",
	}))

	_, err := svc.WakeWindowSnooze(ctx, "window-snooze-1")
	require.ErrorIs(t, err, model.ErrNotFound)

	meta, err := st.Snoozes().GetWindowMetadata(ctx, "window-snooze-1")
	require.NoError(t, err)
	require.Nil(t, meta, "leftover metadata must be cleaned up")
}

func TestWakeWindowSnooze_MissingMetadataFallback(t *testing.T) {
	svc, st, fake := newTestService(t)
	ctx := context.Background()

	wsid := "window-snooze-7"
	_, err := st.Snoozes().PutTab(ctx, &model.SnoozedTab{
		SnoozeID: wsid + "-tab-1", URL: "https://example.com", WakeTime: svc.now(), WindowSnoozeID: &wsid,
	})
	require.NoError(t, err)

	wr, err := svc.WakeWindowSnooze(ctx, wsid)
	require.NoError(t, err)
	require.Equal(t, 1, wr.TabCount)

	w, err := fake.Window(ctx, wr.WindowID)
	require.NoError(t, err)
	require.Equal(t, "normal", w.State)
}

func TestSnoozeTabs_AndWakeTab(t *testing.T) {
	svc, st, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	keep := fake.OpenTab(w.ID, "https://example.com/keep")
	target := fake.OpenTab(w.ID, "https://example.com/later")

	res, err := svc.SnoozeTabs(ctx, []int{target.ID}, svc.now().Add(time.Hour), "read later")
	require.NoError(t, err)
	require.Equal(t, 1, res.TabCount)
	require.Len(t, res.SnoozeIDs, 1)

	live, err := fake.Tabs(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, keep.ID, live[0].ID)

	wr, err := svc.WakeTab(ctx, res.SnoozeIDs[0])
	require.NoError(t, err)
	require.Equal(t, w.ID, wr.WindowID, "single tab wakes into an existing window")

	_, err = st.Snoozes().GetTab(ctx, res.SnoozeIDs[0])
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSnoozeTabs_MissingTabIsPartialFailure(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	a := fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/b")

	res, err := svc.SnoozeTabs(ctx, []int{a.ID, 999}, svc.now().Add(time.Hour), "")
	require.NoError(t, err)
	require.Equal(t, 1, res.TabCount)
	require.Len(t, res.Errors, 1)
}

func TestExecuteOperations_WindowOpsFirst(t *testing.T) {
	svc, _, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	tab := fake.OpenTab(w.ID, "https://example.com/a")
	wake := svc.now().Add(time.Hour)

	// Tab op listed first, but the window op must consume the tab before
	// the tab op runs; the tab op then finds nothing and reports it.
	res, err := svc.ExecuteOperations(ctx, []Operation{
		{Scope: ScopeTabs, TabIDs: []int{tab.ID}, Wake: wake},
		{Scope: ScopeWindow, WindowID: w.ID, Wake: wake},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Succeeded)
	require.Equal(t, 1, res.TabCount, "the tab is snoozed once, by the window op")
	require.Len(t, res.Errors, 1)
}

func TestExecuteOperations_PastWakeRejectsBatch(t *testing.T) {
	svc, st, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com")

	_, err := svc.ExecuteOperations(ctx, []Operation{
		{Scope: ScopeWindow, WindowID: w.ID, Wake: svc.now().Add(time.Hour)},
		{Scope: ScopeWindow, WindowID: w.ID, Wake: svc.now().Add(-time.Hour)},
	})
	require.ErrorIs(t, err, model.ErrValidation)

	pending, err := st.Snoozes().ListTabs(ctx)
	require.NoError(t, err)
	require.Empty(t, pending, "a rejected batch must have no side effects")
}

func TestWakePending_RestoresDueOnly(t *testing.T) {
	svc, st, fake := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	due := fake.OpenTab(w.ID, "https://example.com/due")
	later := fake.OpenTab(w.ID, "https://example.com/later")

	res1, err := svc.SnoozeTabs(ctx, []int{due.ID}, svc.now().Add(time.Hour), "")
	require.NoError(t, err)
	_, err = svc.SnoozeTabs(ctx, []int{later.ID}, svc.now().Add(48*time.Hour), "")
	require.NoError(t, err)

	wr, err := svc.WakePending(ctx, svc.now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, wr.TabCount)

	_, err = st.Snoozes().GetTab(ctx, res1.SnoozeIDs[0])
	require.ErrorIs(t, err, model.ErrNotFound)
	pending, err := st.Snoozes().ListTabs(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestPrime_SchedulesEarliestWake(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	fired := make(chan struct{}, 1)
	svc.alarms = NewTimerAlarms(func() { fired <- struct{}{} })

	_, err := st.Snoozes().PutTab(ctx, &model.SnoozedTab{
		SnoozeID: "snooze-1", URL: "https://example.com", WakeTime: time.Now().Add(10 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Prime(ctx))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("alarm did not fire for an already-pending snooze")
	}
}
