package dedup

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/model"
)

const (
	ScopeGlobal    = "global"     // one pool across every window
	ScopePerWindow = "per-window" // each window deduplicated independently
	ScopeWindow    = "window"     // one window's tabs only

	StrategyOldest = "oldest" // keep the oldest member of each group
	StrategyNewest = "newest" // keep the newest member
	StrategyMRU    = "mru"    // keep the most recently accessed member
	StrategyLRU    = "lru"    // keep the least recently accessed member
	StrategyAll    = "all"    // remove every member, none survive
	StrategyNone   = "none"   // remove nothing, pure preview
)

// Options selects what to deduplicate and which duplicates survive.
type Options struct {
	Scope    string `json:"scope"`
	Strategy string `json:"strategy"`
	DryRun   bool   `json:"dryRun"`
	// WindowID is required for ScopeWindow and ignored otherwise.
	WindowID int `json:"windowId,omitempty"`
}

// Group is one set of tabs sharing a normalized key.
type Group struct {
	Key     string `json:"key"`
	Kept    []int  `json:"kept,omitempty"`
	Removed []int  `json:"removed,omitempty"`
}

// Result reports a deduplication run. With DryRun set, Removed lists what
// would have been removed. Approximate is set when any ordering decision
// fell back from timestamps to tab-id order; keep-strategy results are then
// a heuristic, not a recency guarantee.
type Result struct {
	Success     bool     `json:"success"`
	Examined    int      `json:"examined"`
	Removed     int      `json:"removed"`
	DryRun      bool     `json:"dryRun"`
	Approximate bool     `json:"approximate,omitempty"`
	Groups      []Group  `json:"groups,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

type Service struct {
	browser browser.Browser
	log     zerolog.Logger
}

func NewService(br browser.Browser, log zerolog.Logger) *Service {
	return &Service{browser: br, log: log}
}

// Deduplicate groups tabs by normalized URL and removes the non-survivors
// chosen by the strategy. Per-tab removal failures are collected, never
// raised; remaining removals in the run still proceed.
func (s *Service) Deduplicate(ctx context.Context, opts Options) (*Result, error) {
	switch opts.Scope {
	case ScopeGlobal, ScopePerWindow, ScopeWindow:
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", model.ErrValidation, opts.Scope)
	}
	switch opts.Strategy {
	case StrategyOldest, StrategyNewest, StrategyMRU, StrategyLRU, StrategyAll, StrategyNone:
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrValidation, opts.Strategy)
	}

	var tabs []browser.Tab
	var err error
	if opts.Scope == ScopeWindow {
		tabs, err = s.browser.Tabs(ctx, opts.WindowID)
		if err != nil {
			if errors.Is(err, browser.ErrNotFound) {
				return nil, fmt.Errorf("window %d: %w", opts.WindowID, model.ErrNotFound)
			}
			return nil, err
		}
	} else {
		tabs, err = s.browser.AllTabs(ctx)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{Success: true, DryRun: opts.DryRun, Examined: len(tabs)}

	var pools [][]browser.Tab
	if opts.Scope == ScopePerWindow {
		byWindow := make(map[int][]browser.Tab)
		var order []int
		for _, t := range tabs {
			if _, ok := byWindow[t.WindowID]; !ok {
				order = append(order, t.WindowID)
			}
			byWindow[t.WindowID] = append(byWindow[t.WindowID], t)
		}
		sort.Ints(order)
		for _, wid := range order {
			pools = append(pools, byWindow[wid])
		}
	} else {
		pools = [][]browser.Tab{tabs}
	}

	for _, pool := range pools {
		s.dedupePool(ctx, pool, opts, res)
	}

	s.log.Info().
		Str("scope", opts.Scope).
		Str("strategy", opts.Strategy).
		Bool("dryRun", opts.DryRun).
		Int("examined", res.Examined).
		Int("removed", res.Removed).
		Msg("deduplication run")
	return res, nil
}

func (s *Service) dedupePool(ctx context.Context, pool []browser.Tab, opts Options, res *Result) {
	byKey := make(map[string][]browser.Tab)
	var order []string
	for _, t := range pool {
		k := NormalizeURL(t.URL)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], t)
	}

	for _, key := range order {
		group := byKey[key]
		if len(group) <= 1 {
			continue
		}
		removed, approx := selectRemovals(group, opts.Strategy)
		if approx {
			res.Approximate = true
		}

		g := Group{Key: key}
		removeSet := make(map[int]bool, len(removed))
		for _, t := range removed {
			removeSet[t.ID] = true
		}
		for _, t := range group {
			if !removeSet[t.ID] {
				g.Kept = append(g.Kept, t.ID)
			}
		}
		for _, t := range removed {
			if opts.DryRun {
				g.Removed = append(g.Removed, t.ID)
				res.Removed++
				continue
			}
			if err := s.browser.RemoveTab(ctx, t.ID); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("remove tab %d: %v", t.ID, err))
				g.Kept = append(g.Kept, t.ID)
				continue
			}
			g.Removed = append(g.Removed, t.ID)
			res.Removed++
		}
		res.Groups = append(res.Groups, g)
	}
}

// selectRemovals decides which group members do not survive. The reported
// approximate flag is set when a timestamp needed by the strategy was
// missing and tab-id order stood in for it.
func selectRemovals(group []browser.Tab, strategy string) ([]browser.Tab, bool) {
	switch strategy {
	case StrategyNone:
		return nil, false
	case StrategyAll:
		out := make([]browser.Tab, len(group))
		copy(out, group)
		return out, false
	}

	sorted := make([]browser.Tab, len(group))
	copy(sorted, group)
	approx := false
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		var at, bt *int64
		switch strategy {
		case StrategyOldest, StrategyNewest:
			if a.OpenedAt != nil {
				v := a.OpenedAt.UnixMilli()
				at = &v
			}
			if b.OpenedAt != nil {
				v := b.OpenedAt.UnixMilli()
				bt = &v
			}
		case StrategyMRU, StrategyLRU:
			if a.LastAccessed != nil {
				v := a.LastAccessed.UnixMilli()
				at = &v
			}
			if b.LastAccessed != nil {
				v := b.LastAccessed.UnixMilli()
				bt = &v
			}
		}
		if at == nil || bt == nil {
			approx = true
			return a.ID < b.ID
		}
		if *at != *bt {
			return *at < *bt
		}
		return a.ID < b.ID
	})

	// sorted runs ascending; the survivor sits at one end.
	var keep browser.Tab
	switch strategy {
	case StrategyOldest, StrategyLRU:
		keep = sorted[0]
	case StrategyNewest, StrategyMRU:
		keep = sorted[len(sorted)-1]
	}
	var out []browser.Tab
	for _, t := range sorted {
		if t.ID != keep.ID {
			out = append(out, t)
		}
	}
	return out, approx
}
