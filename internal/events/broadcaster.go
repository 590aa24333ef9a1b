// Package events fans out range-change notifications from the tree engine
// to any number of view collaborators.
package events

import (
	"sync"
	"time"
)

// RangeChange describes one structural mutation of the flattened sequence:
// Count items starting at Start changed identity or position.
type RangeChange struct {
	Start     int   `json:"start"`
	Count     int   `json:"count"`
	Timestamp int64 `json:"timestamp"`
}

// Broadcaster manages subscribers and publishes range changes. It
// implements the engine's UpdateSink contract, so it can be handed to the
// tree directly as its notification sink.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan RangeChange]struct{}
}

// NewBroadcaster creates a new range-change broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan RangeChange]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan RangeChange {
	ch := make(chan RangeChange, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan RangeChange) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	close(ch)
	b.mu.Unlock()
}

// OnRangeChanged publishes one range change to all subscribers.
// Non-blocking: events are dropped for slow consumers.
func (b *Broadcaster) OnRangeChanged(start, count int) {
	b.Publish(RangeChange{Start: start, Count: count})
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (b *Broadcaster) Publish(event RangeChange) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
