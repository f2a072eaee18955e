// Package engine implements the capture and restore pipeline: transforming
// live window/tab/group state into durable records and materializing durable
// records back into live windows.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tabvault/tabvault/server/internal/browser"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/windows"
)

// UngroupedFolder is the synthetic folder that holds tabs outside any tab
// group. It is always ordered last and never recreated as a live group.
const UngroupedFolder = "Ungrouped"

const (
	defaultBatchSize  = 5
	defaultBatchDelay = 200 * time.Millisecond
)

// Options tunes the rate-limited batch creation used by restore. The host
// throttles rapid tab creation; these are empirical values, not a formal
// backoff policy.
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
}

type Service struct {
	store      store.Store
	browser    browser.Browser
	windows    *windows.Service
	log        zerolog.Logger
	batchSize  int
	batchDelay time.Duration
}

func NewService(st store.Store, br browser.Browser, ws *windows.Service, log zerolog.Logger, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = defaultBatchDelay
	}
	return &Service{
		store:      st,
		browser:    br,
		windows:    ws,
		log:        log,
		batchSize:  opts.BatchSize,
		batchDelay: opts.BatchDelay,
	}
}
