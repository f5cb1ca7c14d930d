// Package events carries token lifecycle events to interested subscribers
// (audit, metrics). Publishing is fire-and-forget: a slow or absent
// subscriber never blocks the lifecycle operation that produced the event.
package events

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-token-service/token"
)

type EventKind string

const (
	TokenGranted EventKind = "token_granted"
	TokenRevoked EventKind = "token_revoked"
)

// GrantEvent describes one lifecycle transition of a token.
type GrantEvent struct {
	Kind    EventKind
	TokenID token.TokenID
	UserID  token.UserID
	Scope   token.Scope
	At      time.Time
}

const defaultSubscriberBuffer = 64

// Broadcaster fans events out to subscribers over per-subscriber buffered
// channels. When a subscriber's buffer is full the oldest event is dropped,
// never the publisher blocked.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan GrantEvent
	nextID int
	buffer int
}

// BroadcasterOption modifies a Broadcaster instance.
type BroadcasterOption func(*Broadcaster)

// WithSubscriberBuffer sets the per-subscriber channel capacity.
func WithSubscriberBuffer(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func NewBroadcaster(options ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		subs:   make(map[int]chan GrantEvent),
		buffer: defaultSubscriberBuffer,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its event channel plus a
// cancel function. Cancelling closes the channel and releases the slot.
func (b *Broadcaster) Subscribe() (<-chan GrantEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan GrantEvent, b.buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every active subscriber without blocking.
// A full subscriber buffer drops its oldest event to make room.
func (b *Broadcaster) Publish(event GrantEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
