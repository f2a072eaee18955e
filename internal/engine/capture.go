package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

// ErrNoCapturableTabs is returned when every tab in the window is a system
// tab; there is nothing to save.
var ErrNoCapturableTabs = errors.New("no capturable tabs in window")

// CaptureRequest names the collection a captured window becomes.
type CaptureRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Color       string   `json:"color,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CaptureResult reports a completed capture. Warnings carry per-tab skips
// and degradations that did not fail the capture.
type CaptureResult struct {
	Success      bool     `json:"success"`
	CollectionID string   `json:"collectionId"`
	TabCount     int      `json:"tabCount"`
	FolderCount  int      `json:"folderCount"`
	Warnings     []string `json:"warnings,omitempty"`
}

// CaptureWindow turns a live window into a durable collection and binds the
// collection to the window. Only two conditions fail the whole capture: the
// window is gone, or nothing in it is capturable.
func (s *Service) CaptureWindow(ctx context.Context, windowID int, req CaptureRequest) (*CaptureResult, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: collection name is required", model.ErrValidation)
	}
	if _, err := s.browser.Window(ctx, windowID); err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return nil, fmt.Errorf("window %d: %w", windowID, model.ErrNotFound)
		}
		return nil, err
	}

	liveTabs, err := s.browser.Tabs(ctx, windowID)
	if err != nil {
		return nil, err
	}

	var warnings []string

	// A group enumeration failure downgrades to "no groups", not a hard
	// failure: the tabs are still worth saving.
	liveGroups, err := s.browser.Groups(ctx, windowID)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("tab group enumeration failed (%v); capturing without groups", err))
		liveGroups = nil
	}
	groupByID := make(map[int]browser.TabGroup, len(liveGroups))
	for _, g := range liveGroups {
		groupByID[g.ID] = g
	}

	var capturable []browser.Tab
	for _, t := range liveTabs {
		if browser.IsSystemURL(t.URL) {
			warnings = append(warnings, fmt.Sprintf("skipped system tab %q", t.URL))
			continue
		}
		capturable = append(capturable, t)
	}
	if len(capturable) == 0 {
		return nil, ErrNoCapturableTabs
	}

	// Folder order follows group discovery order (first capturable tab in
	// each group), with the synthetic ungrouped folder last.
	var groupOrder []int
	seen := make(map[int]bool)
	ungrouped := false
	for _, t := range capturable {
		gid := t.GroupID
		if gid == browser.GroupNone {
			ungrouped = true
			continue
		}
		if _, known := groupByID[gid]; !known {
			// Group info unavailable (enumeration failed); treat as ungrouped.
			ungrouped = true
			continue
		}
		if !seen[gid] {
			seen[gid] = true
			groupOrder = append(groupOrder, gid)
		}
	}
	for _, g := range liveGroups {
		if !seen[g.ID] {
			warnings = append(warnings, fmt.Sprintf("skipped empty tab group %q", g.Title))
		}
	}

	collection := &model.Collection{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Tags:        req.Tags,
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		created, err := tx.Collections().Create(ctx, collection)
		if err != nil {
			return err
		}
		collection = created

		folderForGroup := make(map[int]string, len(groupOrder))
		pos := 0
		for _, gid := range groupOrder {
			g := groupByID[gid]
			f, err := tx.Folders().Create(ctx, &model.Folder{
				CollectionID: collection.CollectionID,
				Name:         g.Title,
				Color:        browser.NormalizeGroupColor(g.Color),
				Collapsed:    g.Collapsed,
				Position:     pos,
			})
			if err != nil {
				return err
			}
			folderForGroup[gid] = f.FolderID
			pos++
		}
		var ungroupedID *string
		if ungrouped {
			f, err := tx.Folders().Create(ctx, &model.Folder{
				CollectionID: collection.CollectionID,
				Name:         UngroupedFolder,
				Position:     pos,
			})
			if err != nil {
				return err
			}
			ungroupedID = &f.FolderID
		}

		for _, t := range capturable {
			runtimeID := t.ID
			folderID := ungroupedID
			if fid, ok := folderForGroup[t.GroupID]; ok {
				folderID = &fid
			}
			if _, err := tx.Tabs().Create(ctx, &model.Tab{
				CollectionID: collection.CollectionID,
				FolderID:     folderID,
				URL:          t.URL,
				Title:        t.Title,
				FavIconURL:   t.FavIconURL,
				Position:     t.Index,
				IsPinned:     t.Pinned,
				RuntimeID:    &runtimeID,
			}); err != nil {
				return err
			}
		}

		folderCount := len(groupOrder)
		if ungrouped {
			folderCount++
		}
		collection.Metadata.TabCount = len(capturable)
		collection.Metadata.FolderCount = folderCount
		_, err = tx.Collections().Update(ctx, collection)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.windows.Bind(ctx, collection.CollectionID, windowID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("collectionId", collection.CollectionID).
		Int("windowId", windowID).
		Int("tabs", collection.Metadata.TabCount).
		Int("folders", collection.Metadata.FolderCount).
		Msg("window captured")

	return &CaptureResult{
		Success:      true,
		CollectionID: collection.CollectionID,
		TabCount:     collection.Metadata.TabCount,
		FolderCount:  collection.Metadata.FolderCount,
		Warnings:     warnings,
	}, nil
}
