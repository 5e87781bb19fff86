package settings

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription delivers published snapshots to one observer. Delivery is
// latest-wins: a slow observer skips intermediate versions but always ends
// up with the newest one.
type Subscription struct {
	id   string
	ch   chan Snapshot
	c    *Coordinator
	once sync.Once
}

// Subscribe registers an observer. If the initial load already completed, the
// current snapshot is delivered immediately.
func (c *Coordinator) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.NewString(),
		ch: make(chan Snapshot, 1),
		c:  c,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subsClosed {
		// Coordinator already shut down
		sub.closeChan()
		return sub
	}

	c.subs[sub] = struct{}{}
	if c.State() == StateReady {
		sub.ch <- c.current
	}
	return sub
}

// ID returns a unique identifier for the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Updates returns the snapshot channel. It is closed by Close or when the
// coordinator shuts down.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.ch
}

// Close unregisters the observer.
func (s *Subscription) Close() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if _, ok := s.c.subs[s]; ok {
		delete(s.c.subs, s)
		s.closeChan()
	}
}

func (s *Subscription) closeChan() {
	s.once.Do(func() { close(s.ch) })
}

func (c *Coordinator) publish(snap Snapshot) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for sub := range c.subs {
		select {
		case sub.ch <- snap:
		default:
			// Replace the stale pending snapshot
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}

func (c *Coordinator) closeSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subsClosed = true
	for sub := range c.subs {
		delete(c.subs, sub)
		sub.closeChan()
	}
}
