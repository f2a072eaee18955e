package windows

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
)

func newTestService(t *testing.T) (*Service, store.Store, *browsertest.Fake, *events.Bus) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tabvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := sqlite.New(db)
	fake := browsertest.New()
	bus := events.NewBus()
	return NewService(st, fake, bus, zerolog.Nop()), st, fake, bus
}

func mustCollection(t *testing.T, st store.Store, name string) *model.Collection {
	t.Helper()
	c, err := st.Collections().Create(context.Background(), &model.Collection{Name: name})
	require.NoError(t, err)
	return c
}

func TestBind_ActiveImpliesWindow(t *testing.T) {
	svc, st, fake, _ := newTestService(t)
	ctx := context.Background()

	c := mustCollection(t, st, "work")
	w := fake.OpenWindow()

	require.NoError(t, svc.Bind(ctx, c.CollectionID, w.ID))

	got, err := st.Collections().Get(ctx, c.CollectionID)
	require.NoError(t, err)
	require.True(t, got.IsActive)
	require.NotNil(t, got.WindowID)
	require.Equal(t, w.ID, *got.WindowID)
	require.NotNil(t, got.Metadata.LastAccessed)
}

func TestBind_EvictsOtherCollectionOnSameWindow(t *testing.T) {
	svc, st, fake, _ := newTestService(t)
	ctx := context.Background()

	a := mustCollection(t, st, "a")
	b := mustCollection(t, st, "b")
	w := fake.OpenWindow()

	require.NoError(t, svc.Bind(ctx, a.CollectionID, w.ID))
	require.NoError(t, svc.Bind(ctx, b.CollectionID, w.ID))

	gotA, err := st.Collections().Get(ctx, a.CollectionID)
	require.NoError(t, err)
	require.False(t, gotA.IsActive, "a window never carries two bindings")
	require.Nil(t, gotA.WindowID)

	bound, err := svc.CollectionForWindow(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, b.CollectionID, bound.CollectionID)
}

func TestUnbind_Idempotent(t *testing.T) {
	svc, st, fake, _ := newTestService(t)
	ctx := context.Background()

	c := mustCollection(t, st, "idem")
	w := fake.OpenWindow()
	require.NoError(t, svc.Bind(ctx, c.CollectionID, w.ID))

	require.NoError(t, svc.Unbind(ctx, c.CollectionID))
	require.NoError(t, svc.Unbind(ctx, c.CollectionID), "unbinding an unbound collection is a no-op")

	got, err := st.Collections().Get(ctx, c.CollectionID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Nil(t, got.WindowID)
}

func TestCollectionForWindow_UnboundIsNilNil(t *testing.T) {
	svc, _, fake, _ := newTestService(t)
	w := fake.OpenWindow()

	c, err := svc.CollectionForWindow(context.Background(), w.ID)
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestCollectionForWindow_FallsBackToScan(t *testing.T) {
	svc, st, fake, _ := newTestService(t)
	ctx := context.Background()

	c := mustCollection(t, st, "scanned")
	w := fake.OpenWindow()
	require.NoError(t, svc.Bind(ctx, c.CollectionID, w.ID))

	// Simulate a restart: empty cache, durable binding intact.
	svc.mu.Lock()
	svc.cache = make(map[int]string)
	svc.mu.Unlock()

	bound, err := svc.CollectionForWindow(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, bound)
	require.Equal(t, c.CollectionID, bound.CollectionID)
	require.True(t, svc.cached(w.ID), "a scan hit repopulates the cache")
}

func TestRebuild_RepairsOrphans(t *testing.T) {
	svc, st, fake, _ := newTestService(t)
	ctx := context.Background()

	orphan := mustCollection(t, st, "orphan")
	healthy := mustCollection(t, st, "healthy")
	gone := fake.OpenWindow()
	alive := fake.OpenWindow()
	fake.OpenTab(alive.ID, "https://example.com")
	fake.OpenTab(gone.ID, "https://example.com")

	require.NoError(t, svc.Bind(ctx, orphan.CollectionID, gone.ID))
	require.NoError(t, svc.Bind(ctx, healthy.CollectionID, alive.ID))
	require.NoError(t, fake.CloseWindow(ctx, gone.ID))

	require.NoError(t, svc.Rebuild(ctx))

	got, err := st.Collections().Get(ctx, orphan.CollectionID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Nil(t, got.WindowID)
	require.False(t, svc.cached(gone.ID))

	still, err := st.Collections().Get(ctx, healthy.CollectionID)
	require.NoError(t, err)
	require.True(t, still.IsActive)
	require.True(t, svc.cached(alive.ID))
}

func TestBind_PublishesEvents(t *testing.T) {
	svc, st, fake, bus := newTestService(t)
	ctx := context.Background()

	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	c := mustCollection(t, st, "observed")
	w := fake.OpenWindow()
	require.NoError(t, svc.Bind(ctx, c.CollectionID, w.ID))
	require.NoError(t, svc.Unbind(ctx, c.CollectionID))

	require.Len(t, got, 2)
	require.Equal(t, events.EventCollectionBound, got[0].Kind)
	require.Equal(t, events.EventCollectionUnbound, got[1].Kind)
}

func TestCaptureMetadata_RoundTrip(t *testing.T) {
	svc, _, fake, _ := newTestService(t)
	ctx := context.Background()

	w := fake.OpenWindow()
	until := time.Now().Add(time.Hour).UTC()
	require.NoError(t, svc.CaptureMetadata(ctx, w.ID, "window-snooze-1", until))

	meta, err := svc.Metadata(ctx, "window-snooze-1")
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.Equal(t, w.ID, meta.WindowID)

	require.NoError(t, svc.DeleteMetadata(ctx, "window-snooze-1"))
	meta, err = svc.Metadata(ctx, "window-snooze-1")
	require.NoError(t, err)
	require.Nil(t, meta)
}

func TestBind_ColdCacheEvictsCompetingBinding(t *testing.T) {
	svc, st, fake, _ := newTestService(t)
	ctx := context.Background()

	a := mustCollection(t, st, "a")
	b := mustCollection(t, st, "b")
	w := fake.OpenWindow()
	require.NoError(t, svc.Bind(ctx, a.CollectionID, w.ID))

	// A fresh process knows nothing about the durable binding.
	fresh := NewService(st, fake, events.NewBus(), zerolog.Nop())
	require.NoError(t, fresh.Bind(ctx, b.CollectionID, w.ID))

	gotA, err := st.Collections().Get(ctx, a.CollectionID)
	require.NoError(t, err)
	require.False(t, gotA.IsActive, "a window never carries two bindings")
	require.Nil(t, gotA.WindowID)

	bound, err := fresh.CollectionForWindow(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, b.CollectionID, bound.CollectionID)
}

func TestDirtyActiveRowIsSkippedAndRepaired(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tabvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := sqlite.New(db)
	fake := browsertest.New()
	svc := NewService(st, fake, events.NewBus(), zerolog.Nop())

	// Legacy row: active flag set but no window id.
	_, err = db.Exec(
		`INSERT INTO collections (collection_id, name, is_active, window_id, created_at) VALUES (?, ?, 1, NULL, ?)`,
		"dirty-row", "dirty", time.Now().UTC())
	require.NoError(t, err)

	w := fake.OpenWindow()
	bound, err := svc.CollectionForWindow(ctx, w.ID)
	require.NoError(t, err)
	require.Nil(t, bound, "a row with no window id binds nothing")

	require.NoError(t, svc.Rebuild(ctx))

	got, err := st.Collections().Get(ctx, "dirty-row")
	require.NoError(t, err)
	require.False(t, got.IsActive, "rebuild clears the stale flag")
	require.Nil(t, got.WindowID)
}
