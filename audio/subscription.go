package audio

import "sync"

// eventBufferSize bounds how many timeupdate events may wait behind a slow
// subscriber. Lifecycle events are never dropped.
const eventBufferSize = 64

// Subscription delivers device events in order until Unsubscribe is called.
// Sends never block the device. Consecutive timeupdates collapse into the
// latest one.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	events chan Event
	done   chan struct{}
	wake   chan struct{}
	once   sync.Once
	detach func(*Subscription)

	mu    sync.Mutex
	queue []Event
}

func newSubscription(detach func(*Subscription)) *Subscription {
	s := &Subscription{
		events: make(chan Event),
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
		detach: detach,
	}
	s.Events = s.events
	s.Done = s.done
	go s.pump()
	return s
}

// Unsubscribe detaches the subscription from its device and closes Done.
// It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.detach != nil {
			s.detach(s)
		}
		close(s.done)
	})
}

func (s *Subscription) send(e Event) {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	n := len(s.queue)
	switch {
	case e.Type == EventTimeUpdate && n > 0 && s.queue[n-1].Type == EventTimeUpdate:
		s.queue[n-1] = e
	case e.Type == EventTimeUpdate && n >= eventBufferSize:
	default:
		s.queue = append(s.queue, e)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump hands queued events to Events one at a time.
func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		if len(s.queue) == 0 {
			s.queue = nil
		}
		s.mu.Unlock()

		select {
		case s.events <- e:
		case <-s.done:
			return
		}
	}
}

// subscribers is the fan-out set shared by the device implementations.
type subscribers struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func (ss *subscribers) add() *Subscription {
	sub := newSubscription(ss.remove)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.subs == nil {
		ss.subs = make(map[*Subscription]struct{})
	}
	ss.subs[sub] = struct{}{}
	return sub
}

func (ss *subscribers) remove(sub *Subscription) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.subs, sub)
}

func (ss *subscribers) emit(e Event) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for sub := range ss.subs {
		sub.send(e)
	}
}

func (ss *subscribers) len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.subs)
}
