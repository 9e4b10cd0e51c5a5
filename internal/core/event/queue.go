package event

import "github.com/l1jgo/arena/internal/metrics"

// Queue is the bounded multi-producer, single-consumer channel between the
// transport goroutines and the tick loop.
//
// Producers never block: when the queue is full the event is dropped. A lost
// Disconnect is repaired by session reconciliation, a lost Connect likewise,
// and a lost Input is superseded by the next one.
type Queue struct {
	ch chan Event
}

func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPush enqueues ev without blocking and reports whether it was accepted.
func (q *Queue) TryPush(ev Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		metrics.EventsDropped.WithLabelValues(ev.Kind.String()).Inc()
		return false
	}
}

// Drain hands every currently queued event to fn in FIFO order and returns how
// many were delivered. It never waits for new events.
func (q *Queue) Drain(fn func(Event)) int {
	n := 0
	for {
		select {
		case ev := <-q.ch:
			fn(ev)
			n++
		default:
			return n
		}
	}
}

func (q *Queue) Len() int { return len(q.ch) }
func (q *Queue) Cap() int { return cap(q.ch) }
