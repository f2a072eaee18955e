// Package events carries binding state-change notifications between the
// window service and any UI surfaces that care. Having no subscribers is
// not an error; Publish is fire-and-forget.
package events

import "sync"

// EventKind represents the type of binding event.
type EventKind string

const (
	EventCollectionBound   EventKind = "collection_bound"
	EventCollectionUnbound EventKind = "collection_unbound"
)

// Event carries only ids; subscribers query full records from the store.
type Event struct {
	Kind         EventKind
	CollectionID string
	WindowID     *int
}

// Bus is an instance-scoped fan-out of binding events. Subscribers are
// invoked synchronously in subscription order; a subscriber must not block.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers a callback for every subsequent event.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers evt to all subscribers, if any.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(evt)
	}
}
