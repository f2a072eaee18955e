package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/server/internal/browser/browsertest"
	"github.com/tabvault/tabvault/server/internal/model"
)

func seedDuplicates(t *testing.T) (*Service, *browsertest.Fake, int, [3]int) {
	t.Helper()
	fake := browsertest.New()
	svc := NewService(fake, zerolog.Nop())

	w := fake.OpenWindow()
	older := fake.OpenTab(w.ID, "https://example.com/article")
	newer := fake.OpenTab(w.ID, "https://example.com/article#comments")
	other := fake.OpenTab(w.ID, "https://example.com/other")

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	fake.SetTimes(older.ID, &t0, &t0)
	fake.SetTimes(newer.ID, &t1, &t1)
	fake.SetTimes(other.ID, &t0, &t0)

	return svc, fake, w.ID, [3]int{older.ID, newer.ID, other.ID}
}

func TestDeduplicate_OldestKeepsFirst(t *testing.T) {
	svc, fake, wid, ids := seedDuplicates(t)

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyOldest})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed)
	require.False(t, res.Approximate)
	require.Len(t, res.Groups, 1)
	require.Equal(t, []int{ids[0]}, res.Groups[0].Kept)
	require.Equal(t, []int{ids[1]}, res.Groups[0].Removed)

	live, err := fake.Tabs(context.Background(), wid)
	require.NoError(t, err)
	require.Len(t, live, 2)
	require.Equal(t, ids[0], live[0].ID)
	require.Equal(t, ids[2], live[1].ID)
}

func TestDeduplicate_AllRemovesWholeGroup(t *testing.T) {
	svc, fake, wid, ids := seedDuplicates(t)

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyAll})
	require.NoError(t, err)
	require.Equal(t, 2, res.Removed)

	live, err := fake.Tabs(context.Background(), wid)
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, ids[2], live[0].ID)
}

func TestDeduplicate_DryRunRemovesNothing(t *testing.T) {
	svc, fake, wid, ids := seedDuplicates(t)

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyOldest, DryRun: true})
	require.NoError(t, err)
	require.True(t, res.DryRun)
	require.Equal(t, 1, res.Removed)
	require.Equal(t, []int{ids[1]}, res.Groups[0].Removed, "dry run reports the same selection")

	live, err := fake.Tabs(context.Background(), wid)
	require.NoError(t, err)
	require.Len(t, live, 3, "dry run must not remove anything")
}

func TestDeduplicate_NoneIsPurePreview(t *testing.T) {
	svc, fake, wid, _ := seedDuplicates(t)

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyNone})
	require.NoError(t, err)
	require.Equal(t, 0, res.Removed)
	require.Len(t, res.Groups, 1, "the duplicate group is still reported")

	live, err := fake.Tabs(context.Background(), wid)
	require.NoError(t, err)
	require.Len(t, live, 3)
}

func TestDeduplicate_MissingTimestampsApproximate(t *testing.T) {
	fake := browsertest.New()
	svc := NewService(fake, zerolog.Nop())
	w := fake.OpenWindow()
	first := fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/a")

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyNewest})
	require.NoError(t, err)
	require.True(t, res.Approximate, "timestampless ordering must be flagged")
	require.Equal(t, []int{first.ID}, res.Groups[0].Removed, "id order stands in for open time")
}

func TestDeduplicate_PerWindowScope(t *testing.T) {
	fake := browsertest.New()
	svc := NewService(fake, zerolog.Nop())
	w1 := fake.OpenWindow()
	w2 := fake.OpenWindow()
	fake.OpenTab(w1.ID, "https://example.com/a")
	fake.OpenTab(w2.ID, "https://example.com/a")

	// The same page in two different windows is not a duplicate per-window.
	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopePerWindow, Strategy: StrategyOldest})
	require.NoError(t, err)
	require.Equal(t, 0, res.Removed)

	res, err = svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyOldest})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed)
}

func TestDeduplicate_WindowScope(t *testing.T) {
	fake := browsertest.New()
	svc := NewService(fake, zerolog.Nop())
	w1 := fake.OpenWindow()
	w2 := fake.OpenWindow()
	fake.OpenTab(w1.ID, "https://example.com/a")
	fake.OpenTab(w1.ID, "https://example.com/a")
	outside := fake.OpenTab(w2.ID, "https://example.com/a")

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeWindow, WindowID: w1.ID, Strategy: StrategyOldest})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed)

	_, err = fake.Tab(context.Background(), outside.ID)
	require.NoError(t, err, "tabs outside the scoped window are untouched")
}

func TestDeduplicate_WindowScopeMissingWindow(t *testing.T) {
	svc := NewService(browsertest.New(), zerolog.Nop())
	_, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeWindow, WindowID: 404, Strategy: StrategyOldest})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeduplicate_InvalidOptions(t *testing.T) {
	svc := NewService(browsertest.New(), zerolog.Nop())
	_, err := svc.Deduplicate(context.Background(), Options{Scope: "everything", Strategy: StrategyOldest})
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: "random"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestDeduplicate_RemovalFailureDoesNotAbort(t *testing.T) {
	fake := browsertest.New()
	svc := NewService(fake, zerolog.Nop())
	w := fake.OpenWindow()
	fake.OpenTab(w.ID, "https://example.com/a")
	stuck := fake.OpenTab(w.ID, "https://example.com/a")
	fake.OpenTab(w.ID, "https://example.com/b")
	doomed := fake.OpenTab(w.ID, "https://example.com/b")
	fake.RemoveTabErr[stuck.ID] = errors.New("host refused")

	res, err := svc.Deduplicate(context.Background(), Options{Scope: ScopeGlobal, Strategy: StrategyOldest})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed, "the unaffected group is still processed")
	require.Len(t, res.Errors, 1)

	_, err = fake.Tab(context.Background(), stuck.ID)
	require.NoError(t, err, "failed removal leaves the tab alive")
	_, err = fake.Tab(context.Background(), doomed.ID)
	require.Error(t, err)
}
