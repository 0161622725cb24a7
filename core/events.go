package core

import (
	"sync"
	"time"
)

// SessionCompleted is published whenever a class session transitions into
// the completed status for the first time.
type SessionCompleted struct {
	SessionID string
	EndedAt   time.Time
}

// SessionEvents fans SessionCompleted events out to subscribers.
// Publish never blocks: a subscriber that falls behind its channel buffer
// drops events (cleanup is best-effort, see core/cleanup).
type SessionEvents struct {
	mu     sync.RWMutex
	subs   []chan SessionCompleted
	closed bool
}

const subscriberBuffer = 64

func NewSessionEvents() *SessionEvents {
	return &SessionEvents{}
}

// Subscribe registers a new subscriber channel. The channel is closed when
// the event bus shuts down.
func (ev *SessionEvents) Subscribe() <-chan SessionCompleted {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	ch := make(chan SessionCompleted, subscriberBuffer)
	if ev.closed {
		close(ch)
		return ch
	}
	ev.subs = append(ev.subs, ch)
	return ch
}

func (ev *SessionEvents) Publish(event SessionCompleted) {
	ev.mu.RLock()
	defer ev.mu.RUnlock()

	if ev.closed {
		return
	}
	for _, ch := range ev.subs {
		select {
		case ch <- event:
		default: // subscriber full; drop
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (ev *SessionEvents) Close() {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	if ev.closed {
		return
	}
	ev.closed = true
	for _, ch := range ev.subs {
		close(ch)
	}
	ev.subs = nil
}
