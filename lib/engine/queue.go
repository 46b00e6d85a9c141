package engine

import "sync"

// Queue is the bounded event queue between the ingress goroutines and the
// render scheduler. Push never blocks: when the queue is full the stalest
// pending event is evicted, since control freshness outranks completeness.
type Queue struct {
	mu      sync.Mutex
	buf     []Event
	head    int
	count   int
	pushed  uint64
	evicted uint64
}

type QueueStats struct {
	Pushed  uint64
	Evicted uint64
	Pending int
}

func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{buf: make([]Event, capacity)}
}

// Push enqueues ev and reports whether an older event was evicted to make
// room.
func (q *Queue) Push(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pushed++
	evict := q.count == len(q.buf)
	if evict {
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		q.evicted++
	}
	q.buf[(q.head+q.count)%len(q.buf)] = ev
	q.count++
	return evict
}

// Drain removes and returns all pending events, oldest first.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	out := make([]Event, 0, q.count)
	for q.count > 0 {
		out = append(out, q.buf[q.head])
		q.buf[q.head] = Event{}
		q.head = (q.head + 1) % len(q.buf)
		q.count--
	}
	q.head = 0
	return out
}

func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{Pushed: q.pushed, Evicted: q.evicted, Pending: q.count}
}
