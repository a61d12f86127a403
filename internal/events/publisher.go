package events

import (
	"sync"
)

// GlobalRunID subscribes a channel to events from every run.
const GlobalRunID = "*"

// subscriberBuffer is the per-channel backlog. A subscriber that falls this
// far behind starts losing events instead of stalling the run.
const subscriberBuffer = 100

// Publisher fans events out to subscribers. Implementations must not block
// the publishing goroutine.
type Publisher interface {
	// Publish delivers an event to every subscriber matching its run.
	Publish(event Event)
	// Subscribe returns a channel receiving events for the given run.
	// GlobalRunID ("*") receives events for all runs.
	Subscribe(runID string) <-chan Event
	// Unsubscribe removes and closes a subscription channel.
	Unsubscribe(runID string, ch <-chan Event)
	// Close shuts down the publisher and all subscriptions.
	Close()
}

type subscription struct {
	runID string
	ch    chan Event
}

// MemoryPublisher is the in-process Publisher used by the server.
type MemoryPublisher struct {
	mu     sync.Mutex
	subs   []subscription
	closed bool
}

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish delivers the event to matching subscribers. Delivery is best
// effort; a full channel drops the event for that subscriber only.
func (p *MemoryPublisher) Publish(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	for _, sub := range p.subs {
		if sub.runID != event.RunID && sub.runID != GlobalRunID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel receiving events for the given run. After
// Close the returned channel is already closed.
func (p *MemoryPublisher) Subscribe(runID string) <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if p.closed {
		close(ch)
		return ch
	}
	p.subs = append(p.subs, subscription{runID: runID, ch: ch})
	return ch
}

// Unsubscribe removes the subscription and closes its channel.
func (p *MemoryPublisher) Unsubscribe(runID string, ch <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, sub := range p.subs {
		if sub.runID == runID && sub.ch == ch {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Close shuts down the publisher and closes every subscription channel.
func (p *MemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for _, sub := range p.subs {
		close(sub.ch)
	}
	p.subs = nil
}

// NopPublisher discards events. It is the default when no publisher is
// configured.
type NopPublisher struct{}

// NewNopPublisher creates a no-op publisher.
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

// Publish does nothing.
func (p *NopPublisher) Publish(event Event) {}

// Subscribe returns a closed channel.
func (p *NopPublisher) Subscribe(runID string) <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

// Unsubscribe does nothing.
func (p *NopPublisher) Unsubscribe(runID string, ch <-chan Event) {}

// Close does nothing.
func (p *NopPublisher) Close() {}
