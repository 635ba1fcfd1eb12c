package loopback

import (
	"context"

	"github.com/sandialabs/goshmem/transport"
)

// eventQueue is the optional per-put event channel (spec.md §4.2), backed
// by a buffered Go channel rather than the counting-event-only path.
type eventQueue struct {
	ch chan transport.Event
}

func newEventQueue() *eventQueue {
	return &eventQueue{ch: make(chan transport.Event, 4096)}
}

func (q *eventQueue) push(ev transport.Event) { q.ch <- ev }

func (q *eventQueue) Wait(ctx context.Context) (transport.Event, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-ctx.Done():
		return transport.Event{}, ctx.Err()
	}
}
