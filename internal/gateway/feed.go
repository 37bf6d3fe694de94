package gateway

import (
	"log/slog"
	"sync"
)

// feedBufferSize bounds each subscription's pending-event buffer. A
// subscriber that cannot keep up loses events, the same degradation mode
// as a dropped remote subscription; recovery is a range reload.
const feedBufferSize = 128

// feed is one collection's change-feed hub. Each subscription gets its own
// buffered channel and pump goroutine, so handlers run sequentially per
// subscriber and mutating callers never block on slow consumers.
type feed[T any] struct {
	mu     sync.Mutex
	subs   map[int64]*feedSub[T]
	nextID int64
}

type feedSub[T any] struct {
	clientID int64
	events   chan T
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{subs: make(map[int64]*feedSub[T])}
}

// subscribe registers a handler on behalf of a client. Events originated
// by the same client are suppressed. The returned function tears the
// subscription down; calling it twice is safe.
func (f *feed[T]) subscribe(clientID int64, handler func(T)) Unsubscribe {
	sub := &feedSub[T]{clientID: clientID, events: make(chan T, feedBufferSize)}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = sub
	f.mu.Unlock()

	go func() {
		for ev := range sub.events {
			handler(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(sub.events)
		})
	}
}

// emit delivers an event to every subscription except those owned by the
// originating client. Non-blocking: a full subscriber buffer drops the
// event with a warning.
func (f *feed[T]) emit(fromClient int64, ev T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.clientID == fromClient {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			slog.Warn("change feed subscriber lagging, event dropped")
		}
	}
}
