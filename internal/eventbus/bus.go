// Package eventbus fans out market events (fresh listings, new sales) to
// in-process subscribers, primarily the websocket feed.
package eventbus

import (
	"sync"
	"time"
)

const (
	TypeListingsAdd = "listings/add"
	TypeSalesAdd    = "sales/add"
)

// Event is one market occurrence scoped to a (world,item) pair.
type Event struct {
	Type      string      `json:"event"`
	WorldID   int32       `json:"world_id"`
	ItemID    int32       `json:"item_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Bus is a typed publish/subscribe hub. Subscribers register a channel per
// event type; slow subscribers drop events rather than blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]chan Event
	closed bool
}

func New() *Bus {
	return &Bus{subs: make(map[string][]chan Event)}
}

// Subscribe registers ch for events of the given type.
func (b *Bus) Subscribe(eventType string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.subs[eventType] = append(b.subs[eventType], ch)
}

// Unsubscribe removes ch from the given type's subscriber list.
func (b *Bus) Unsubscribe(eventType string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, sub := range subs {
		if sub == ch {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every subscriber of its type without
// blocking: full channels miss the event.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[evt.Type] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close drops all subscribers and closes their channels so consumers
// ranging over them terminate; further publishes are no-ops. A channel
// subscribed to several event types is closed once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	seen := make(map[chan Event]struct{})
	for _, subs := range b.subs {
		for _, ch := range subs {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
			close(ch)
		}
	}
	b.subs = make(map[string][]chan Event)
}
