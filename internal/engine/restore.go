package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/model"
)

// RestoreResult reports a completed restore. Per-tab creation failures are
// collected in Errors; they do not abort the remaining batches.
type RestoreResult struct {
	Success      bool     `json:"success"`
	CollectionID string   `json:"collectionId"`
	WindowID     int      `json:"windowId"`
	Created      int      `json:"created"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// creation pairs a request with its outcome so the caller reduces results
// into durable-record updates instead of threading a callback through the
// creation loop.
type creation struct {
	record *model.Tab
	live   *browser.Tab
	err    error
}

// RestoreCollection materializes a collection as live tabs and groups. With
// a nil targetWindowID a new window is created; otherwise the target window
// must exist before any tab creation begins. An empty collection restores
// as a window holding only the host's default empty tab.
func (s *Service) RestoreCollection(ctx context.Context, collectionID string, targetWindowID *int) (*RestoreResult, error) {
	c, err := s.store.Collections().Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	folders, err := s.store.Folders().ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Tabs().ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	// Flat, globally-ordered creation plan. Stored positions are window
	// indexes from capture time, so sorting by position reconstructs the
	// window-level ordering even though group membership is interleaved.
	plan := make([]*model.Tab, len(records))
	copy(plan, records)
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Position < plan[j].Position })

	var (
		windowID     int
		defaultTabID int
		warnings     []string
	)
	if targetWindowID != nil {
		if _, err := s.browser.Window(ctx, *targetWindowID); err != nil {
			if errors.Is(err, browser.ErrNotFound) {
				return nil, fmt.Errorf("restore target window %d: %w", *targetWindowID, model.ErrNotFound)
			}
			return nil, err
		}
		windowID = *targetWindowID
	} else {
		w, err := s.browser.CreateWindow(ctx, browser.CreateWindowRequest{Focused: true})
		if err != nil {
			return nil, err
		}
		windowID = w.ID
		if tabs, err := s.browser.Tabs(ctx, windowID); err == nil && len(tabs) > 0 {
			defaultTabID = tabs[0].ID
		}
	}

	results := s.createTabs(ctx, windowID, plan)

	var errs []string
	created := 0
	liveByFolder := make(map[string][]int)
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Sprintf("create tab %q: %v", r.record.URL, r.err))
			continue
		}
		created++
		liveID := r.live.ID
		if err := s.store.Tabs().SetRuntimeID(ctx, r.record.TabRecordID, &liveID); err != nil {
			errs = append(errs, fmt.Sprintf("map runtime id for %q: %v", r.record.URL, err))
		}
		if r.record.FolderID != nil {
			liveByFolder[*r.record.FolderID] = append(liveByFolder[*r.record.FolderID], liveID)
		}
	}

	for _, f := range folders {
		if f.Name == UngroupedFolder {
			continue
		}
		ids := liveByFolder[f.FolderID]
		if len(ids) == 0 {
			continue
		}
		if _, err := s.browser.GroupTabs(ctx, windowID, ids, f.Name, browser.NormalizeGroupColor(f.Color), f.Collapsed); err != nil {
			warnings = append(warnings, fmt.Sprintf("recreate group %q: %v", f.Name, err))
		}
	}

	// The placeholder tab a fresh window opens with is only removed once
	// real tabs exist; removal can race with the host, which is fine.
	if defaultTabID != 0 && created > 0 {
		_ = s.browser.RemoveTab(ctx, defaultTabID)
	}

	if err := s.windows.Bind(ctx, collectionID, windowID); err != nil {
		return nil, err
	}

	// Counts must reflect post-restore durable reality, not pre-restore
	// assumptions.
	if err := s.recomputeCounts(ctx, collectionID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("collectionId", collectionID).
		Int("windowId", windowID).
		Int("created", created).
		Int("failed", len(errs)).
		Msg("collection restored")

	return &RestoreResult{
		Success:      true,
		CollectionID: c.CollectionID,
		WindowID:     windowID,
		Created:      created,
		Errors:       errs,
		Warnings:     warnings,
	}, nil
}

// createTabs runs the plan in fixed-size batches with a short delay between
// batches to respect host rate limits on rapid tab creation.
func (s *Service) createTabs(ctx context.Context, windowID int, plan []*model.Tab) []creation {
	out := make([]creation, 0, len(plan))
	for start := 0; start < len(plan); start += s.batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				for _, rec := range plan[start:] {
					out = append(out, creation{record: rec, err: ctx.Err()})
				}
				return out
			case <-time.After(s.batchDelay):
			}
		}
		end := start + s.batchSize
		if end > len(plan) {
			end = len(plan)
		}
		for _, rec := range plan[start:end] {
			live, err := s.browser.CreateTab(ctx, browser.CreateTabRequest{
				WindowID: windowID,
				URL:      rec.URL,
				Pinned:   rec.IsPinned,
			})
			out = append(out, creation{record: rec, live: live, err: err})
		}
	}
	return out
}

func (s *Service) recomputeCounts(ctx context.Context, collectionID string) error {
	c, err := s.store.Collections().Get(ctx, collectionID)
	if err != nil {
		return err
	}
	folders, err := s.store.Folders().ListByCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	tabs, err := s.store.Tabs().ListByCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	c.Metadata.FolderCount = len(folders)
	c.Metadata.TabCount = len(tabs)
	_, err = s.store.Collections().Update(ctx, c)
	return err
}
