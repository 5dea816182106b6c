package events

import (
	"context"

	"RaspCD/model"
)

// Queue hands snapshots from the polling loop to the notifier. It holds at
// most capacity items; pushing onto a full queue drops the oldest so the
// consumer always sees the latest state. One producer, one consumer.
type Queue struct {
	ch chan model.Snapshot
}

// NewQueue creates a queue of the given capacity (at least 1).
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan model.Snapshot, capacity)}
}

// Push enqueues s without blocking, evicting the oldest item when full.
func (q *Queue) Push(s model.Snapshot) {
	for {
		select {
		case q.ch <- s:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// TryPop returns the next snapshot, or false when the queue is empty.
func (q *Queue) TryPop() (model.Snapshot, bool) {
	select {
	case s := <-q.ch:
		return s, true
	default:
		return model.Snapshot{}, false
	}
}

// Pop blocks until a snapshot is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (model.Snapshot, bool) {
	select {
	case s := <-q.ch:
		return s, true
	case <-ctx.Done():
		return model.Snapshot{}, false
	}
}

// Len returns the number of queued snapshots.
func (q *Queue) Len() int {
	return len(q.ch)
}
