/*
 * file: eventbus.go
 * package: services
 * description:
 *     Fan-out broadcast of room events with a bounded backlog per
 *     subscriber: a register/unregister/broadcast hub over a set of bounded
 *     subscriber channels, dropping on overflow rather than blocking.
 */
package services

import (
	"sync"

	"github.com/racecore/roomserver/internal/core/domain"
)

// eventBacklog is the per-subscriber channel capacity.
const eventBacklog = 32

// EventBus is the room's reliable, ordered, many-subscriber broadcast. Only
// the room goroutine ever calls Publish; subscribers only ever read.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	ch      chan domain.Event
	dropped uint64 // events lost to backlog overflow; diagnostic only
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[*subscriber]struct{})}
}

// Subscription is a live handle to the bus; Events drains room events in
// publication order. A subscriber that falls behind loses events rather
// than stalling the room.
type Subscription struct {
	bus *EventBus
	sub *subscriber
}

// Subscribe registers a new subscriber and returns its handle.
func (b *EventBus) Subscribe() *Subscription {
	sub := &subscriber{ch: make(chan domain.Event, eventBacklog)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return &Subscription{bus: b, sub: sub}
}

// Events returns the channel to receive broadcast events from.
func (s *Subscription) Events() <-chan domain.Event { return s.sub.ch }

// Dropped returns how many events this subscriber has lost to backlog
// overflow. It is the subscriber's responsibility to notice a non-zero
// value and resynchronize or disconnect.
func (s *Subscription) Dropped() uint64 { return s.sub.dropped }

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if _, ok := s.bus.subs[s.sub]; ok {
		delete(s.bus.subs, s.sub)
		close(s.sub.ch)
	}
}

// Publish broadcasts event to every current subscriber. A subscriber whose
// backlog is full has the event dropped for it rather than blocking the
// room — Publish must never block the single room goroutine.
func (b *EventBus) Publish(event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped++
		}
	}
}
