// Package windows owns the live-window ⇄ collection binding. The in-memory
// cache it maintains is process-scoped and is only ever a hint: every read
// that matters re-validates against the durable store or the live window
// list, and Rebuild reconstructs it from scratch after a restart.
package windows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/events"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

type Service struct {
	store   store.Store
	browser browser.Browser
	bus     *events.Bus
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[int]string // windowID -> collectionID
}

func NewService(st store.Store, br browser.Browser, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		store:   st,
		browser: br,
		bus:     bus,
		log:     log,
		cache:   make(map[int]string),
	}
}

// Bind marks a collection active on a window. If the collection was bound to
// a different window, that stale cache entry is evicted; if another
// collection claims the same window, it is unbound first so a window never
// carries two bindings.
func (s *Service) Bind(ctx context.Context, collectionID string, windowID int) error {
	c, err := s.store.Collections().Get(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("bind collection %s: %w", collectionID, err)
	}

	s.mu.Lock()
	if c.WindowID != nil && *c.WindowID != windowID {
		delete(s.cache, *c.WindowID)
	}
	s.mu.Unlock()

	// Competing bindings are found in the durable store, not the cache: a
	// cold cache (fresh process, failed rebuild) must not let two
	// collections end up bound to the same window.
	active, err := s.store.Collections().ListActive(ctx)
	if err != nil {
		return err
	}
	for _, other := range active {
		if other.CollectionID == collectionID {
			continue
		}
		if other.IsActive && other.WindowID != nil && *other.WindowID == windowID {
			if err := s.Unbind(ctx, other.CollectionID); err != nil && !errors.Is(err, model.ErrNotFound) {
				return err
			}
		}
	}

	now := time.Now().UTC()
	c.IsActive = true
	c.WindowID = &windowID
	c.Metadata.LastAccessed = &now
	if _, err := s.store.Collections().Update(ctx, c); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[windowID] = collectionID
	s.mu.Unlock()

	s.log.Debug().Str("collectionId", collectionID).Int("windowId", windowID).Msg("collection bound")
	s.bus.Publish(events.Event{Kind: events.EventCollectionBound, CollectionID: collectionID, WindowID: &windowID})
	return nil
}

// Unbind marks a collection inactive. Unbinding an already-unbound
// collection is a no-op, not an error.
func (s *Service) Unbind(ctx context.Context, collectionID string) error {
	c, err := s.store.Collections().Get(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("unbind collection %s: %w", collectionID, err)
	}
	if !c.IsActive && c.WindowID == nil {
		return nil
	}

	s.mu.Lock()
	for wid, cid := range s.cache {
		if cid == collectionID {
			delete(s.cache, wid)
		}
	}
	s.mu.Unlock()

	c.IsActive = false
	c.WindowID = nil
	if _, err := s.store.Collections().Update(ctx, c); err != nil {
		return err
	}

	s.log.Debug().Str("collectionId", collectionID).Msg("collection unbound")
	s.bus.Publish(events.Event{Kind: events.EventCollectionUnbound, CollectionID: collectionID})
	return nil
}

// CollectionForWindow returns the collection bound to windowID, or (nil,
// nil) when the window is unbound. Cache hits are verified against the
// store; entries whose collection was deleted out-of-band are evicted.
func (s *Service) CollectionForWindow(ctx context.Context, windowID int) (*model.Collection, error) {
	s.mu.Lock()
	collectionID, ok := s.cache[windowID]
	s.mu.Unlock()

	if ok {
		c, err := s.store.Collections().Get(ctx, collectionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		// Deleted out-of-band; self-heal and fall through to a scan.
		s.mu.Lock()
		delete(s.cache, windowID)
		s.mu.Unlock()
	}

	// Full scan with strict checks rather than the active index: legacy rows
	// can carry a dirty active flag with no window id.
	all, err := s.store.Collections().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.IsActive && c.WindowID != nil && *c.WindowID == windowID {
			s.mu.Lock()
			s.cache[windowID] = c.CollectionID
			s.mu.Unlock()
			return c, nil
		}
	}
	return nil, nil
}

// WindowForCollection returns the window id a collection is bound to, or nil.
func (s *Service) WindowForCollection(ctx context.Context, collectionID string) (*int, error) {
	c, err := s.store.Collections().Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return c.WindowID, nil
}

// Rebuild reconstructs the cache at process start: it re-scans active
// collections and cross-references each bound window against the live
// window list. Collections bound to windows that no longer exist are
// orphaned and automatically unbound, restoring the active⇔bound invariant.
func (s *Service) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	s.cache = make(map[int]string)
	s.mu.Unlock()

	active, err := s.store.Collections().ListActive(ctx)
	if err != nil {
		return err
	}
	wins, err := s.browser.Windows(ctx)
	if err != nil {
		return err
	}
	live := make(map[int]bool, len(wins))
	for _, w := range wins {
		live[w.ID] = true
	}

	for _, c := range active {
		if c.WindowID == nil || !live[*c.WindowID] {
			s.log.Warn().Str("collectionId", c.CollectionID).Msg("orphaned binding repaired")
			if err := s.Unbind(ctx, c.CollectionID); err != nil {
				return err
			}
			continue
		}
		s.mu.Lock()
		s.cache[*c.WindowID] = c.CollectionID
		s.mu.Unlock()
	}
	s.log.Info().Int("bindings", len(active)).Msg("binding cache rebuilt")
	return nil
}

// CaptureMetadata records a window's chrome under a snooze id. It must run
// before any of the window's tabs are removed; removing tabs can auto-close
// the window and lose the geometry.
func (s *Service) CaptureMetadata(ctx context.Context, windowID int, snoozeID string, until time.Time) error {
	w, err := s.browser.Window(ctx, windowID)
	if err != nil {
		return err
	}
	return s.store.Snoozes().PutWindowMetadata(ctx, &model.WindowMetadata{
		SnoozeID:    snoozeID,
		WindowID:    w.ID,
		Left:        w.Left,
		Top:         w.Top,
		Width:       w.Width,
		Height:      w.Height,
		State:       w.State,
		Type:        w.Type,
		Focused:     w.Focused,
		Incognito:   w.Incognito,
		SnoozeUntil: until,
	})
}

// Metadata returns the captured chrome for a snooze id, or (nil, nil).
func (s *Service) Metadata(ctx context.Context, snoozeID string) (*model.WindowMetadata, error) {
	return s.store.Snoozes().GetWindowMetadata(ctx, snoozeID)
}

// DeleteMetadata removes a consumed metadata entry.
func (s *Service) DeleteMetadata(ctx context.Context, snoozeID string) error {
	return s.store.Snoozes().DeleteWindowMetadata(ctx, snoozeID)
}

// cached reports whether the cache has an entry for windowID (tests only).
func (s *Service) cached(windowID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[windowID]
	return ok
}
