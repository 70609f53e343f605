package registry

import (
	"context"
	"sync"
)

// Subscription delivers registry snapshots in publish order. Snapshots are
// queued without bound, so a slow reader never causes one to be skipped and
// never blocks Register.
type Subscription[V any] struct {
	id string
	ch chan Snapshot[V]

	mu     sync.Mutex
	queue  []Snapshot[V]
	notify chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func newSubscription[V any](id string) *Subscription[V] {
	return &Subscription[V]{
		id:     id,
		ch:     make(chan Snapshot[V]),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// ID identifies the subscription in logs
func (s *Subscription[V]) ID() string {
	return s.id
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription[V]) C() <-chan Snapshot[V] {
	return s.ch
}

// Close ends the subscription
func (s *Subscription[V]) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Subscription[V]) push(snap Snapshot[V]) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription[V]) pop() (Snapshot[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Snapshot[V]{}, false
	}
	snap := s.queue[0]
	s.queue[0] = Snapshot[V]{}
	s.queue = s.queue[1:]
	return snap, true
}

func (s *Subscription[V]) run(ctx context.Context, unregister func()) {
	defer close(s.ch)
	defer unregister()

	for {
		snap, ok := s.pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}

		select {
		case s.ch <- snap:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
