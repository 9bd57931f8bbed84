// Package events carries decision-cycle notifications between the engine,
// the API stream and the monitor.
package events

import "sync"

// Event enumerates the pipeline's broadcast topics.
type Event string

const (
	EventCycleComplete  Event = "cycle.complete"
	EventSignal         Event = "strategy.signal"
	EventTradeRecorded  Event = "trade.recorded"
	EventPositionOpened Event = "position.opened"
	EventPositionClosed Event = "position.closed"
	EventRankingsUpdate Event = "rankings.update"
	EventRiskRejected   Event = "risk.rejected"
)

// Bus is a channel-based pub/sub broker. Publish never blocks; slow
// subscribers lose messages rather than stalling the decision cycle.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Event][]chan any
	closed bool
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Event][]chan any)}
}

// Subscribe registers a listener for an event and returns the channel
// and an unsubscribe function.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan any, buffer)
	b.subs[e] = append(b.subs[e], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[e]
		for i, c := range subs {
			if c == ch {
				close(c)
				b.subs[e] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}

	return ch, unsub
}

// Publish fans the payload out to every subscriber without blocking.
func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[e] {
		select {
		case ch <- payload:
		default:
			// slow subscriber, drop
		}
	}
}

// Close shuts every subscription down. Further publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for e, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subs, e)
	}
}
